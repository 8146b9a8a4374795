// Command txm-log decodes and prints a CBOR operation log file.
//
// Usage:
//
//	txm-log [flags] <logfile>
//
// Flags:
//
//	-category string   Only show events of this category (READ, WRITE,
//	                   BATCH, WAIT, SESSION, ERROR)
//	-endpoint string   Only show events for this endpoint
//	-session string    Only show events of this scan session
//	-min-severity string
//	                   Minimum severity (DEBUG, INFO, WARN, ERROR)
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/txm-control/txm-go/pkg/log"
)

func main() {
	var (
		category    = flag.String("category", "", "only show events of this category")
		endpoint    = flag.String("endpoint", "", "only show events for this endpoint")
		sessionID   = flag.String("session", "", "only show events of this scan session")
		minSeverity = flag.String("min-severity", "", "minimum severity")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: txm-log [flags] <logfile>")
		os.Exit(2)
	}

	filter, err := buildFilter(*category, *endpoint, *sessionID, *minSeverity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "txm-log: %v\n", err)
		os.Exit(2)
	}

	if err := dump(flag.Arg(0), filter); err != nil {
		fmt.Fprintf(os.Stderr, "txm-log: %v\n", err)
		os.Exit(1)
	}
}

func buildFilter(category, endpoint, sessionID, minSeverity string) (log.Filter, error) {
	filter := log.Filter{Endpoint: endpoint, SessionID: sessionID}

	if category != "" {
		c, err := parseCategory(category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if minSeverity != "" {
		s, err := parseSeverity(minSeverity)
		if err != nil {
			return log.Filter{}, err
		}
		filter.MinSeverity = &s
	}
	return filter, nil
}

func dump(path string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(format(event))
	}
}

// format renders one event as a single line.
func format(e log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %-7s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Severity, e.Category)
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " %s", e.Endpoint)
	}

	switch {
	case e.Read != nil:
		fmt.Fprintf(&b, " = %s", e.Read.Value)
	case e.Write != nil:
		w := e.Write
		fmt.Fprintf(&b, " <- %s", w.Value)
		switch {
		case w.Skipped:
			b.WriteString(" (skipped: no permit)")
		case w.Confirmed && w.Elapsed != nil:
			fmt.Fprintf(&b, " (confirmed in %v)", w.Elapsed.Round(0))
		case w.Batched:
			b.WriteString(" (batched)")
		case !w.Blocking:
			b.WriteString(" (dispatched)")
		}
	case e.Batch != nil:
		fmt.Fprintf(&b, " %s", e.Batch.Action)
		if e.Batch.Action == log.BatchFlushed {
			fmt.Fprintf(&b, " pending=%d", e.Batch.Pending)
			if len(e.Batch.Failed) > 0 {
				fmt.Fprintf(&b, " failed=%s", strings.Join(e.Batch.Failed, ","))
			}
		}
	case e.Wait != nil:
		fmt.Fprintf(&b, " target=%s outcome=%s elapsed=%v", e.Wait.Target, e.Wait.Outcome, e.Wait.Elapsed.Round(0))
	case e.Session != nil:
		fmt.Fprintf(&b, " %s snapshot=%d", e.Session.Action, e.Session.Snapshot)
		if len(e.Session.RestoreFailed) > 0 {
			fmt.Fprintf(&b, " restore_failed=%s", strings.Join(e.Session.RestoreFailed, ","))
		}
	case e.Error != nil:
		fmt.Fprintf(&b, " %s", e.Error.Message)
		if e.Error.Context != "" {
			fmt.Fprintf(&b, " (%s)", e.Error.Context)
		}
	}

	if e.SessionID != "" {
		fmt.Fprintf(&b, " [session %s]", shortID(e.SessionID))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToUpper(s) {
	case "READ":
		return log.CategoryRead, nil
	case "WRITE":
		return log.CategoryWrite, nil
	case "BATCH":
		return log.CategoryBatch, nil
	case "WAIT":
		return log.CategoryWait, nil
	case "SESSION":
		return log.CategorySession, nil
	case "ERROR":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

func parseSeverity(s string) (log.Severity, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return log.SeverityDebug, nil
	case "INFO":
		return log.SeverityInfo, nil
	case "WARN":
		return log.SeverityWarn, nil
	case "ERROR":
		return log.SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}
