package llm

import (
	"context"
	"os"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client,
// exposing streamed generation. The API key comes from the environment
// (GEMINI_API_KEY / GOOGLE_API_KEY), matching the genai client's own
// resolution.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = os.Getenv("GEMINI_MODEL")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) GenerateStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{},
		) {
			if err != nil {
				errc <- err
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part.Text == "" {
						continue
					}
					select {
					case out <- part.Text:
					case <-ctx.Done():
						errc <- ctx.Err()
						return
					}
				}
			}
		}
	}()
	return out, errc
}
