package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscampos/pkg/models"
)

type fakeCompleter struct {
	response openai.ChatCompletionResponse
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, request)
	return f.response, f.err
}

func answer(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func sampleStats() models.SummaryStatistics {
	return models.SummaryStatistics{
		TotalGrossValue:   decimal.RequireFromString("1250.00"),
		TotalTax:          decimal.RequireFromString("62.50"),
		TotalDeductions:   decimal.RequireFromString("100.00"),
		LocalGrossValue:   decimal.RequireFromString("1000.00"),
		LocalTax:          decimal.RequireFromString("50.00"),
		ForeignGrossValue: decimal.RequireFromString("250.00"),
		ForeignTax:        decimal.RequireFromString("12.50"),
		RecordCount:       3,
		CancelledCount:    1,
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleStats(), "Campos", "3301009")

	assert.Contains(t, prompt, "Total de Serviços (Bruto): R$ 1.250,00")
	assert.Contains(t, prompt, "Total de Deduções: R$ 100,00")
	assert.Contains(t, prompt, "Total de ISS Apurado: R$ 62,50")
	assert.Contains(t, prompt, "Serviços Dentro de Campos (3301009): R$ 1.000,00")
	assert.Contains(t, prompt, "Serviços Fora de Campos: R$ 250,00")
	assert.Contains(t, prompt, "Quantidade de Notas Válidas: 2")
	assert.Contains(t, prompt, "entre 2% e 5%")
}

func TestSummarize_Success(t *testing.T) {
	fake := &fakeCompleter{response: answer("  Resumo executivo.\n")}
	s := NewSummarizer(fake, "gpt-4o-mini", 0.7)

	text := s.Summarize(context.Background(), sampleStats(), "Campos", "3301009")

	assert.Equal(t, "Resumo executivo.", text)
	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 0.0001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, systemInstruction, req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "R$ 1.250,00")
}

func TestSummarize_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
		want string
	}{
		{"request error", &fakeCompleter{err: errors.New("429 Too Many Requests")}, FallbackErrorText},
		{"no choices", &fakeCompleter{}, FallbackEmptyText},
		{"blank answer", &fakeCompleter{response: answer("   ")}, FallbackEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummarizer(tt.fake, "gpt-4o-mini", 0.7)
			assert.Equal(t, tt.want, s.Summarize(context.Background(), sampleStats(), "Campos", "3301009"))
		})
	}
}

func TestNewOpenAISummarizer_RequiresKey(t *testing.T) {
	s, err := NewOpenAISummarizer("", "gpt-4o-mini", 0.7)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	s, err = NewOpenAISummarizer("sk-test", "gpt-4o-mini", 0.7)
	require.NoError(t, err)
	assert.NotNil(t, s)
}
