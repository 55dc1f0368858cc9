// Package analysis asks a language model for an executive summary of the
// imported invoices. The summary is display-only and never fails an import.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"fiscampos/internal/brl"
	"fiscampos/internal/logger"
	"fiscampos/pkg/models"
)

// Texts shown instead of a summary.
const (
	FallbackEmptyText = "Não foi possível gerar a análise no momento."
	FallbackErrorText = "Erro ao processar análise inteligente."
)

const systemInstruction = "Você é um consultor tributário especializado em legislação municipal e NFSe."

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required for --analyze")

// ChatCompleter is the part of the OpenAI client the summarizer needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer turns summary statistics into a short narrative in Portuguese.
type Summarizer struct {
	client      ChatCompleter
	model       string
	temperature float32
	log         zerolog.Logger
}

// NewSummarizer creates a summarizer on top of an existing client.
func NewSummarizer(client ChatCompleter, model string, temperature float32) *Summarizer {
	return &Summarizer{
		client:      client,
		model:       model,
		temperature: temperature,
		log:         logger.WithComponent("analysis"),
	}
}

// NewOpenAISummarizer creates a summarizer backed by the OpenAI API.
func NewOpenAISummarizer(apiKey, model string, temperature float32) (*Summarizer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return NewSummarizer(openai.NewClient(apiKey), model, temperature), nil
}

// Summarize returns the model's answer, or one of the fallback texts. It never fails.
func (s *Summarizer) Summarize(ctx context.Context, stats models.SummaryStatistics, homeName, homeCode string) string {
	prompt := BuildPrompt(stats, homeName, homeCode)

	s.log.Debug().
		Str("model", s.model).
		Int("records", stats.RecordCount).
		Int("prompt_length", len(prompt)).
		Msg("Requesting fiscal analysis")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Fiscal analysis request failed")
		return FallbackErrorText
	}

	if len(resp.Choices) == 0 {
		s.log.Warn().Msg("Fiscal analysis returned no choices")
		return FallbackEmptyText
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		s.log.Warn().Msg("Fiscal analysis returned an empty answer")
		return FallbackEmptyText
	}

	s.log.Info().
		Int("tokens", resp.Usage.TotalTokens).
		Msg("Fiscal analysis completed")

	return text
}

// BuildPrompt renders the statistics into the analysis request.
func BuildPrompt(stats models.SummaryStatistics, homeName, homeCode string) string {
	var b strings.Builder

	b.WriteString("Analise os seguintes dados consolidados de faturamento e impostos (ISS):\n")
	fmt.Fprintf(&b, "- Total de Serviços (Bruto): %s\n", brl.Currency(stats.TotalGrossValue))
	fmt.Fprintf(&b, "- Total de Deduções: %s\n", brl.Currency(stats.TotalDeductions))
	fmt.Fprintf(&b, "- Total de ISS Apurado: %s\n", brl.Currency(stats.TotalTax))
	fmt.Fprintf(&b, "- Serviços Dentro de %s (%s): %s\n", homeName, homeCode, brl.Currency(stats.LocalGrossValue))
	fmt.Fprintf(&b, "- Serviços Fora de %s: %s\n", homeName, brl.Currency(stats.ForeignGrossValue))
	fmt.Fprintf(&b, "- Quantidade de Notas Válidas: %d\n", stats.ActiveCount())
	b.WriteString("\n")
	b.WriteString("Crie um resumo executivo profissional. Comente sobre o peso das deduções em relação ao ")
	b.WriteString("faturamento bruto e se a carga tributária de ISS está condizente com a média ")
	b.WriteString("(geralmente entre 2% e 5%).")

	return b.String()
}
