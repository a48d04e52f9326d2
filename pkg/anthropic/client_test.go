package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "Hola, "},
		{Type: "thinking", Text: "ignored"},
		{Type: "text", Text: "mundo."},
	}}
	assert.Equal(t, "Hola, mundo.", resp.Text())

	empty := &MessageResponse{}
	assert.Empty(t, empty.Text())
}

func TestEstimateCost_KnownModel(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 4.80, cost, 0.001) // 0.80 in + 4.00 out
}

func TestEstimateCost_CacheTokens(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80*1.25+0.80*0.1, cost, 0.001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	usage := TokenUsage{InputTokens: 5000, OutputTokens: 5000}
	assert.Zero(t, usage.EstimateCost("mystery-model"))
}

func TestToSDKMessages_Roles(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "pregunta"},
		{Role: "assistant", Content: "respuesta"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, sdk.MessageParamRole("user"), out[0].Role)
	assert.Equal(t, sdk.MessageParamRole("assistant"), out[1].Role)
}

func TestToSDKSystemBlocks(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{
		{Text: "base prompt", CacheControl: &CacheControl{TTL: "5m"}},
		{Text: "context"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "base prompt", out[0].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("5m"), out[0].CacheControl.TTL)
	assert.Equal(t, "context", out[1].Text)
}
