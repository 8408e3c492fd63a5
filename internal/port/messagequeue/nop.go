package messagequeue

import "context"

// Nop is a Queue that discards publishes and never delivers. It serves
// deployments that run without a broker (events disabled, tests).
type Nop struct{}

// Publish discards the message.
func (Nop) Publish(context.Context, string, []byte) error { return nil }

// Subscribe returns a no-op cancel; nothing is ever delivered.
func (Nop) Subscribe(context.Context, string, Handler) (func(), error) {
	return func() {}, nil
}

// Close is a no-op.
func (Nop) Close() error { return nil }

// IsConnected always reports false.
func (Nop) IsConnected() bool { return false }
