// Package llm is the thin model-client layer the demo commands stream
// from. The parser core never imports it; it exists so a live model's
// chunked output can be piped straight into a Parser.
package llm

import "context"

// StreamClient produces model output as an ordered sequence of text
// chunks.
type StreamClient interface {
	Name() string
	// GenerateStream starts one generation and delivers chunks on the
	// returned channel until the model finishes or ctx is canceled. The
	// chunk channel is closed when the stream ends; a terminal error is
	// reported through the error channel.
	GenerateStream(ctx context.Context, prompt string) (<-chan string, <-chan error)
	Close() error
}
