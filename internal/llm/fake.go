package llm

import "context"

// FakeClient replays a fixed chunk sequence for offline use and tests.
type FakeClient struct {
	Chunks []string
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, c := range f.Chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}
