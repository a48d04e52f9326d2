// Package generate is the free-form text generation façade. It is used
// only outside the structured questionnaire path: the pre-start chatter
// and the post-completion Q&A.
package generate

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hidrotec-mx/intake-cli/internal/model"
	"github.com/hidrotec-mx/intake-cli/pkg/anthropic"
)

const systemPrompt = `Eres un asesor técnico de una consultora de tratamiento de agua.
Respondes en español, de forma breve y concreta, sobre potabilización,
tratamiento de aguas residuales, reúso y normatividad. Si el tema se aleja
del agua, redirige la conversación con cortesía.`

// FallbackReply is returned whenever the backend is unreachable. The
// session must keep flowing even when generation is down.
const FallbackReply = "Disculpa, en este momento no puedo responder a eso. " +
	"¿Te gustaría continuar con el cuestionario para preparar tu propuesta?"

// Options tunes the generator.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	RPM         int
}

// Generator produces free-form replies with client-side rate limiting and
// a canned fallback on backend failure.
type Generator struct {
	client  anthropic.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Generator over an Anthropic client.
func New(client anthropic.Client, opts Options) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	rpm := opts.RPM
	if rpm <= 0 {
		rpm = 30
	}
	return &Generator{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

// Generate produces a reply for the trailing conversation history. It
// never returns an error for backend failures; those degrade to
// FallbackReply so the caller can keep the session alive.
func (g *Generator) Generate(ctx context.Context, history []model.ChatMessage, context_ string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	system := []anthropic.SystemBlock{{Text: systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}}}
	if context_ != "" {
		system = append(system, anthropic.SystemBlock{Text: context_})
	}

	msgs := make([]anthropic.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, anthropic.Message{Role: "user", Content: "Hola"})
	}

	temp := g.opts.Temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		System:      system,
		Messages:    msgs,
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("text generation failed, using fallback", zap.Error(err))
		return FallbackReply, nil
	}

	resp.Usage.LogCost(g.opts.Model, "freeform")
	text := resp.Text()
	if text == "" {
		return FallbackReply, nil
	}
	return text, nil
}
