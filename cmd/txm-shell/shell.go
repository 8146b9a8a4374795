package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/txm-control/txm-go/pkg/controller"
	"github.com/txm-control/txm-go/pkg/session"
)

// shell handles the interactive command loop.
type shell struct {
	ctrl       *controller.Controller
	sessionCfg session.Config
	rl         *readline.Instance
}

func newShell(ctrl *controller.Controller, sessionCfg session.Config) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "txm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{ctrl: ctrl, sessionCfg: sessionCfg, rl: rl}, nil
}

// Run starts the interactive command loop.
func (s *shell) Run() error {
	defer s.rl.Close()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "endpoints", "ls":
			s.cmdEndpoints()

		case "get":
			s.cmdGet(args)

		case "set":
			s.cmdSet(args)

		case "wait":
			s.cmdWait(args)

		case "batch":
			s.cmdBatch(args)

		case "last":
			s.cmdLast(args)

		case "scan":
			s.cmdScan(args)

		case "exit", "quit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.rl.Stdout(), `Commands:
  endpoints              List the declared endpoints
  get <name>             Read an endpoint
  set <name> <value>     Write an endpoint (honors its blocking policy)
  wait <name> <value> [tolerance] [timeout]
                         Poll until the endpoint reaches the value
  batch begin [nowait]   Open a batching window
  batch end              Flush the window (barrier unless opened nowait)
  last <name>            Show the last confirmed value
  scan <seconds>         Run a scan session that idles for the duration
  help                   Show this help
  exit                   Quit
`)
}

func (s *shell) cmdEndpoints() {
	registry := s.ctrl.Registry()
	for _, name := range registry.Names() {
		ep, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		flags := ""
		if ep.Wait {
			flags += " wait"
		}
		if ep.PermitRequired {
			flags += " permit"
		}
		fmt.Fprintf(s.rl.Stdout(), "  %-28s %-32s %s%s\n", ep.Name, ep.Address, ep.Type, flags)
	}
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <name>")
		return
	}
	value, err := s.ctrl.Get(context.Background(), args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %s\n", args[0], value.GoString())
}

func (s *shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <name> <value>")
		return
	}
	start := time.Now()
	if err := s.ctrl.Set(context.Background(), args[0], parseScalar(args[1])); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if s.ctrl.BatchActive() {
		fmt.Fprintf(s.rl.Stdout(), "Queued %s (resolves on batch end)\n", args[0])
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "OK (%.0f ms)\n", float64(time.Since(start).Microseconds())/1000)
}

func (s *shell) cmdWait(args []string) {
	if len(args) < 2 || len(args) > 4 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: wait <name> <value> [tolerance] [timeout]")
		return
	}
	// Without an explicit tolerance the configured default applies.
	tolerance := -1.0
	if len(args) >= 3 {
		t, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Bad tolerance: %v\n", err)
			return
		}
		tolerance = t
	}
	timeout := 30 * time.Second
	if len(args) == 4 {
		d, err := time.ParseDuration(args[3])
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Bad timeout: %v\n", err)
			return
		}
		timeout = d
	}

	start := time.Now()
	err := s.ctrl.WaitFor(context.Background(), args[0], parseScalar(args[1]), tolerance, timeout)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Wait failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Reached after %v\n", time.Since(start).Round(time.Millisecond))
}

func (s *shell) cmdBatch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: batch begin [nowait] | batch end")
		return
	}
	switch args[0] {
	case "begin":
		block := !(len(args) > 1 && args[1] == "nowait")
		if err := s.ctrl.BeginBatch(block); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.rl.Stdout(), "Batch open; sets queue until 'batch end'")
	case "end":
		start := time.Now()
		if err := s.ctrl.EndBatch(context.Background()); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Batch failed: %v\n", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "Batch resolved in %v\n", time.Since(start).Round(time.Millisecond))
	default:
		fmt.Fprintln(s.rl.Stdout(), "Usage: batch begin [nowait] | batch end")
	}
}

func (s *shell) cmdLast(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: last <name>")
		return
	}
	value, ok := s.ctrl.LastKnown(args[0])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No confirmed value for %s yet\n", args[0])
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %s\n", args[0], value.GoString())
}

func (s *shell) cmdScan(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: scan <seconds>")
		return
	}
	seconds, err := strconv.ParseFloat(args[0], 64)
	if err != nil || seconds < 0 {
		fmt.Fprintln(s.rl.Stdout(), "Bad duration")
		return
	}

	sess := session.New(s.ctrl, s.sessionCfg)
	fmt.Fprintf(s.rl.Stdout(), "Scan session: snapshot of %d endpoints, idling %.1fs\n",
		len(s.sessionCfg.Snapshot), seconds)
	err = sess.Run(context.Background(), func(ctx context.Context) error {
		select {
		case <-time.After(time.Duration(seconds * float64(time.Second))):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Session finished with error: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "Session finished; instrument restored")
}

// parseScalar interprets a command argument as bool, int, float, or string,
// in that order. Endpoint coercion settles the final type.
func parseScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
