package gemini

import (
	"context"
	"strings"

	"github.com/dipwatch/dip-agent/internal/service/llm"
	"github.com/google/generative-ai-go/genai"
)

var _ llm.Service = (*Service)(nil)

type Service struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

type Option func(service *Service)

func WithTemperature(temp float32) Option {
	return func(service *Service) {
		service.model.SetTemperature(temp)
	}
}

func NewService(client *genai.Client, opts ...Option) llm.Service {
	svc := &Service{
		client: client,
		model:  client.GenerativeModel("gemini-2.0-flash"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, err
	}
	return llm.Answer{Content: parseResponse(resp)}, nil
}

func parseResponse(resp *genai.GenerateContentResponse) string {
	var res strings.Builder
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for i, part := range resp.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			continue
		}
		if i > 0 {
			res.WriteString("\n")
		}
		res.WriteString(string(text))
	}
	return res.String()
}
