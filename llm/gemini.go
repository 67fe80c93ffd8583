package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"go.aimuz.me/interviewcoder/internal/types"
)

const defaultGeminiModel = "gemini-2.5-flash"

// geminiSolver implements Solver for Gemini. It answers both images and audio.
type geminiSolver struct {
	client *genai.Client
	model  string
}

func newGeminiSolver(ctx context.Context, opts Options) (*geminiSolver, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiSolver{client: client, model: model}, nil
}

func (s *geminiSolver) Name() string { return "gemini:" + s.model }

func (s *geminiSolver) SolveImages(ctx context.Context, req ImageRequest) (types.Solution, error) {
	if len(req.Images) == 0 {
		return types.Solution{}, fmt.Errorf("%w: no images", types.ErrProvider)
	}

	system, user := buildSolvePrompt(req.Language, req.InterviewType, len(req.Images))
	contents := []*genai.Content{imageContent(user, req.Images)}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return types.Solution{}, fmt.Errorf("%w: generate content: %w", types.ErrProvider, err)
	}

	return ParseSolution(resp.Text())
}

// StreamAudio starts a streaming generation. The request is sent when the
// returned Stream is first ranged over.
func (s *geminiSolver) StreamAudio(ctx context.Context, req AudioRequest) (Stream, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", types.ErrProvider)
	}

	contents := []*genai.Content{audioContent(req)}
	responses := s.client.Models.GenerateContentStream(ctx, s.model, contents, nil)

	return func(yield func(string, error) bool) {
		for resp, err := range responses {
			if err != nil {
				yield("", fmt.Errorf("%w: stream content: %w", types.ErrProvider, err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}, nil
}

func (s *geminiSolver) AnswerAudio(ctx context.Context, req AudioRequest) (string, error) {
	if len(req.Audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", types.ErrProvider)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, []*genai.Content{audioContent(req)}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", types.ErrProvider, err)
	}
	return resp.Text(), nil
}

func imageContent(prompt string, images [][]byte) *genai.Content {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

func audioContent(req AudioRequest) *genai.Content {
	mime := req.MimeType
	if mime == "" {
		mime = types.AudioMimeType
	}
	return genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(buildAudioPrompt(req.Language)),
		genai.NewPartFromBytes(req.Audio, mime),
	}, genai.RoleUser)
}
