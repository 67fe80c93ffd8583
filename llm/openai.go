package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/interviewcoder/internal/types"
)

// openaiSolver implements Solver with the chat completions API.
// It only accepts images; audio requests are rejected.
type openaiSolver struct {
	client openai.Client
	model  string
}

func newOpenAISolver(opts Options) *openaiSolver {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = openai.ChatModelGPT4o
	}

	return &openaiSolver{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

func (s *openaiSolver) Name() string { return "openai:" + s.model }

func (s *openaiSolver) SolveImages(ctx context.Context, req ImageRequest) (types.Solution, error) {
	if len(req.Images) == 0 {
		return types.Solution{}, fmt.Errorf("%w: no images", types.ErrProvider)
	}

	system, user := buildSolvePrompt(req.Language, req.InterviewType, len(req.Images))

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	parts = append(parts, openai.TextContentPart(user))
	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		}))
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(parts),
		},
	})
	if err != nil {
		return types.Solution{}, fmt.Errorf("%w: chat completion: %w", types.ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return types.Solution{}, fmt.Errorf("%w: no choices", types.ErrProvider)
	}

	return ParseSolution(resp.Choices[0].Message.Content)
}

func (s *openaiSolver) StreamAudio(context.Context, AudioRequest) (Stream, error) {
	return nil, fmt.Errorf("%w: openai does not answer audio", types.ErrUnsupportedOperation)
}

func (s *openaiSolver) AnswerAudio(context.Context, AudioRequest) (string, error) {
	return "", fmt.Errorf("%w: openai does not answer audio", types.ErrUnsupportedOperation)
}
