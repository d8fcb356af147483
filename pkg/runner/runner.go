package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/internal/presentation/tui"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/session"
)

// Backend is the session surface the chat loop drives.
type Backend interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, error)
	Chat(ctx context.Context, sessionID, message string) (session.ChatReply, error)
	CancelAutoAction(ctx context.Context, sessionID string) error
	Reset(ctx context.Context, sessionID string) (*domain.Session, error)
	Subscribe(sessionID string) (<-chan session.Event, func())
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner handles the chat loop using provided IO.
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	Renderer  ContentRenderer
	Logger    *slog.Logger
	SessionID string
	Prompt    string

	mu sync.Mutex // serializes writes from the loop and the event watcher
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Renderer: tui.PlainRenderer,
		Logger:   logging.NewNop(),
		Prompt:   "> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type line struct {
	text string
	err  error
}

// Run chats until the input ends, the user exits or ctx is done.
func (r *Runner) Run(ctx context.Context, b Backend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // releases the line pump
	s, err := b.Start(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	id := s.ID
	r.Logger.Debug("Chat session ready", "session_id", id)

	events, unsubscribe := b.Subscribe(id)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		r.watch(events)
	}()
	defer func() {
		unsubscribe()
		<-watchDone
	}()

	r.printf("Session %s. Type a message, `cancel` to abort a pending auto-action, `exit` to quit.\n", id)

	lines := make(chan line)
	go r.pump(ctx, lines)

	for {
		r.printf("%s", r.Prompt)

		var in line
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return ctx.Err()
			}
			in = l
		}
		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				return nil
			}
			return in.err
		}

		done, err := r.handle(ctx, b, id, in.text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.printf("Error: %v\n", err)
		}
		if done {
			return nil
		}
	}
}

// pump reads lines until EOF. A final line without newline is still delivered.
func (r *Runner) pump(ctx context.Context, out chan<- line) {
	defer close(out)
	reader := bufio.NewReader(r.Input)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			select {
			case out <- line{text: text}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- line{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// handle runs one input line. It reports true when the loop should end.
func (r *Runner) handle(ctx context.Context, b Backend, id, text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		return false, nil
	case "exit", "quit":
		r.printf("Goodbye.\n")
		return true, nil
	case "cancel":
		err := b.CancelAutoAction(ctx, id)
		if errors.Is(err, domain.ErrNoPendingAction) {
			r.printf("No auto-action pending.\n")
			return false, nil
		}
		return false, err
	case "reset":
		if _, err := b.Reset(ctx, id); err != nil {
			return false, err
		}
		r.printf("Session reset.\n")
		return false, nil
	}

	msg, err := SanitizeMessage(text)
	if err != nil {
		return false, err
	}
	reply, err := b.Chat(ctx, id, msg)
	if err != nil {
		return false, err
	}
	r.render(reply.Turn.ResponseText)
	if reply.Result != nil {
		r.render(tui.ResultMarkdown(reply.Turn.Trigger(), *reply.Result))
	}
	return false, nil
}

// watch prints what happens in the background: alerts and auto-actions.
func (r *Runner) watch(events <-chan session.Event) {
	for ev := range events {
		switch data := ev.Data.(type) {
		case domain.Alert:
			r.render(tui.AlertMarkdown(data))
		case *domain.AutoActionEvent:
			switch ev.Type {
			case domain.EventAutoActionScheduled:
				r.printf("Auto-action %s in %s (type `cancel` to abort).\n", data.Action, data.After)
			case domain.EventAutoActionCancelled:
				r.printf("Auto-action %s cancelled.\n", data.Action)
			}
		case *domain.ActionEvent:
			if data.Origin == domain.OriginAuto {
				r.render(tui.ResultMarkdown(data.Action, data.Result))
			}
		}
	}
}

func (r *Runner) render(markdown string) {
	out, err := r.Renderer(markdown)
	if err != nil {
		r.Logger.Warn("Render failed, printing raw markdown", "err", err)
		out = markdown
	}
	r.printf("%s\n", strings.TrimRight(out, "\n"))
}

func (r *Runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Output, format, args...)
}
