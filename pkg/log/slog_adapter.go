package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes operation events to an slog.Logger.
// Useful for development when you want to watch instrument traffic live.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger, mapping event severity to slog level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("controller_id", event.ControllerID),
		slog.String("category", event.Category.String()),
	}

	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}
	if event.Address != "" {
		attrs = append(attrs, slog.String("address", event.Address))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}

	switch {
	case event.Read != nil:
		attrs = append(attrs, slog.String("value", event.Read.Value))
	case event.Write != nil:
		attrs = append(attrs,
			slog.String("value", event.Write.Value),
			slog.Bool("blocking", event.Write.Blocking),
		)
		if event.Write.Batched {
			attrs = append(attrs, slog.Bool("batched", true))
		}
		if event.Write.Skipped {
			attrs = append(attrs, slog.Bool("permit_skipped", true))
		}
		if event.Write.Confirmed {
			attrs = append(attrs, slog.Bool("confirmed", true))
		}
		if event.Write.Elapsed != nil {
			attrs = append(attrs, slog.Duration("elapsed", *event.Write.Elapsed))
		}
	case event.Batch != nil:
		attrs = append(attrs,
			slog.String("action", event.Batch.Action.String()),
			slog.Bool("block", event.Batch.Block),
		)
		if event.Batch.Pending > 0 {
			attrs = append(attrs, slog.Int("pending", event.Batch.Pending))
		}
		if len(event.Batch.Failed) > 0 {
			attrs = append(attrs, slog.Any("failed", event.Batch.Failed))
		}
	case event.Wait != nil:
		attrs = append(attrs,
			slog.String("target", event.Wait.Target),
			slog.String("outcome", event.Wait.Outcome),
			slog.Duration("elapsed", event.Wait.Elapsed),
		)
	case event.Session != nil:
		attrs = append(attrs, slog.String("action", event.Session.Action.String()))
		if len(event.Session.RestoreFailed) > 0 {
			attrs = append(attrs, slog.Any("restore_failed", event.Session.RestoreFailed))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), level(event.Severity), "instrument", attrs...)
}

// level maps event severity to an slog level.
func level(s Severity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
