package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cecil-the-coder/ai-relay/pkg/types"
)

var (
	// ErrEmptyPrompt is returned before any collaborator call when the prompt is blank.
	ErrEmptyPrompt = errors.New("relay: empty prompt")

	// ErrClientGone is returned when the sink can no longer be written to.
	// No terminal event is written in that case.
	ErrClientGone = errors.New("relay: client disconnected")

	// ErrStreamEnded is returned by sinks asked to write after a terminal event.
	ErrStreamEnded = errors.New("relay: stream already terminated")
)

// Stats summarises one relayed stream.
type Stats struct {
	EventsReceived     int
	ContentFrames      int
	DiagnosticsDropped int
	WhitespaceDropped  int
	// Terminal is EventDone or EventError, or -1 when none was written.
	Terminal EventKind
	Duration time.Duration
	// FirstContent is the delay before the first content frame, zero if none was sent.
	FirstContent time.Duration
}

// String formats the stats for the per-stream log line.
func (s Stats) String() string {
	terminal := "none"
	if s.Terminal == EventDone || s.Terminal == EventError {
		terminal = s.Terminal.String()
	}
	return fmt.Sprintf("events=%d content=%d diagnostics=%d blank=%d terminal=%s duration=%v",
		s.EventsReceived, s.ContentFrames, s.DiagnosticsDropped, s.WhitespaceDropped, terminal, s.Duration)
}

// Relay forwards a chat collaborator's output to a Sink.
type Relay struct {
	provider  types.ChatProvider
	logger    *log.Logger
	debug     bool
	requestID func(context.Context) string
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for diagnostics and debug output.
func WithLogger(logger *log.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDebug enables per-token debug logging.
func WithDebug(debug bool) Option {
	return func(r *Relay) {
		r.debug = debug
	}
}

// WithRequestID sets the function used to prefix log lines with the request ID
// carried by the stream context.
func WithRequestID(fn func(context.Context) string) Option {
	return func(r *Relay) {
		if fn != nil {
			r.requestID = fn
		}
	}
}

// New creates a Relay over the given collaborator.
func New(provider types.ChatProvider, opts ...Option) *Relay {
	r := &Relay{
		provider:  provider,
		logger:    log.Default(),
		requestID: func(context.Context) string { return "-" },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream relays the collaborator's reply to prompt into sink.
//
// It returns ErrEmptyPrompt without writing anything for a blank prompt and an error
// wrapping ErrClientGone when the sink failed or ctx was cancelled; in both cases no
// terminal event was written. Otherwise exactly one terminal event has been written
// and the returned error, if any, is the collaborator failure it reported.
func (r *Relay) Stream(ctx context.Context, prompt string, sink Sink) (stats Stats, err error) {
	stats.Terminal = -1
	if strings.TrimSpace(prompt) == "" {
		return stats, ErrEmptyPrompt
	}

	start := time.Now()
	terminal := Done()
	defer func() {
		stats.Duration = time.Since(start)
		if errors.Is(err, ErrClientGone) {
			return
		}
		if werr := sink.WriteEvent(terminal); werr != nil {
			err = fmt.Errorf("%w: %v", ErrClientGone, werr)
			return
		}
		stats.Terminal = terminal.Kind
	}()

	stream, err := r.provider.StreamChat(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return stats, fmt.Errorf("%w: %v", ErrClientGone, ctx.Err())
		}
		terminal = Failure(err.Error())
		return stats, err
	}
	defer func() { _ = stream.Close() }()

	for {
		event, nerr := stream.Next()
		if errors.Is(nerr, io.EOF) {
			return stats, nil
		}
		if nerr != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("%w: %v", ErrClientGone, ctx.Err())
			}
			terminal = Failure(nerr.Error())
			return stats, nerr
		}
		stats.EventsReceived++

		switch event.Kind {
		case types.TokenText:
			if strings.TrimSpace(event.Text) == "" {
				stats.WhitespaceDropped++
				continue
			}
			if r.debug {
				r.logger.Printf("[%s] [DEBUG] relay: content %q", r.requestID(ctx), event.Text)
			}
			if werr := sink.WriteEvent(Content(event.Text)); werr != nil {
				return stats, fmt.Errorf("%w: %v", ErrClientGone, werr)
			}
			stats.ContentFrames++
			if stats.ContentFrames == 1 {
				stats.FirstContent = time.Since(start)
			}
		case types.TokenDiagnostic:
			stats.DiagnosticsDropped++
			r.logDiagnostic(ctx, event.Diagnostic)
		default:
			stats.DiagnosticsDropped++
		}
	}
}

func (r *Relay) logDiagnostic(ctx context.Context, d *types.Diagnostic) {
	if d == nil {
		return
	}
	if d.RequiresUserAction() {
		r.logger.Printf("[%s] Warning: %s collaborator requires user action: %s", r.requestID(ctx), r.provider.Name(), d.Raw)
		return
	}
	if r.debug {
		r.logger.Printf("[%s] [DEBUG] relay: dropped %s diagnostic: %s", r.requestID(ctx), d.Type, d.Raw)
	}
}
