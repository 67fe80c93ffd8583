// Package llm provides the AI provider adapters that turn screenshots and
// recorded questions into answers.
package llm

import (
	"context"
	"fmt"
	"iter"

	"go.aimuz.me/interviewcoder/internal/types"
)

// Stream is a finite, single-pass sequence of answer text chunks.
// A non-nil error ends the sequence.
type Stream = iter.Seq2[string, error]

// ImageRequest asks for a solution to the problem shown in the images.
type ImageRequest struct {
	Images        [][]byte // PNG bytes in capture order
	Language      string   // Programming language for the code answer
	InterviewType string
}

// AudioRequest asks for an answer to a spoken question.
type AudioRequest struct {
	Audio    []byte
	MimeType string
	Language string
}

// Solver is implemented by every provider adapter.
type Solver interface {
	Name() string
	SolveImages(ctx context.Context, req ImageRequest) (types.Solution, error)
	StreamAudio(ctx context.Context, req AudioRequest) (Stream, error)
	AnswerAudio(ctx context.Context, req AudioRequest) (string, error)
}

// Options configures a Solver.
type Options struct {
	Provider string // "openai" or "gemini"
	APIKey   string
	Model    string
	BaseURL  string // Optional endpoint override
}

// New creates a Solver for the given provider.
func New(ctx context.Context, opts Options) (Solver, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: missing api key for %s", types.ErrConfigInvalid, opts.Provider)
	}

	switch opts.Provider {
	case "gemini":
		return newGeminiSolver(ctx, opts)
	case "openai":
		return newOpenAISolver(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrConfigInvalid, opts.Provider)
	}
}
