/*
Package runner implements the interactive chat loop of VaultGuard.

The Runner reads lines from an io.Reader, sends them to a session backend
(usually a *session.Manager) and writes rendered replies to an io.Writer.
Auto-actions and proactive alerts raised in the background are streamed to
the same output while the user types.

# Commands

  - cancel: aborts the pending auto-action, if any.
  - reset: restores the session to its initial state.
  - exit, quit: ends the loop.

Anything else is a chat message, classified by Super Eliza.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithRenderer(tui.NewRenderer()),
	)

	if err := r.Run(ctx, manager); err != nil {
		log.Fatal(err)
	}
*/
package runner
