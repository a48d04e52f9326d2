package generate

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidrotec-mx/intake-cli/internal/model"
	"github.com/hidrotec-mx/intake-cli/pkg/anthropic"
)

type fakeClient struct {
	lastReq anthropic.MessageRequest
	resp    *anthropic.MessageResponse
	err     error
}

func (c *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.lastReq = req
	return c.resp, c.err
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestGenerate_ReturnsBackendText(t *testing.T) {
	client := &fakeClient{resp: textResponse("Claro, con gusto.")}
	g := New(client, Options{Model: "claude-haiku-4-5-20251001"})

	history := []model.ChatMessage{{Role: "user", Content: "¿qué es la ósmosis inversa?"}}
	out, err := g.Generate(context.Background(), history, "")

	require.NoError(t, err)
	assert.Equal(t, "Claro, con gusto.", out)
	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "user", client.lastReq.Messages[0].Role)
}

func TestGenerate_BackendFailureFallsBack(t *testing.T) {
	client := &fakeClient{err: eris.New("api unreachable")}
	g := New(client, Options{})

	out, err := g.Generate(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, FallbackReply, out)
}

func TestGenerate_EmptyResponseFallsBack(t *testing.T) {
	client := &fakeClient{resp: &anthropic.MessageResponse{}}
	g := New(client, Options{})

	out, err := g.Generate(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, FallbackReply, out)
}

func TestGenerate_ExtraContextBecomesSystemBlock(t *testing.T) {
	client := &fakeClient{resp: textResponse("ok")}
	g := New(client, Options{})

	_, err := g.Generate(context.Background(), nil, "Sector: Industrial.")
	require.NoError(t, err)

	require.Len(t, client.lastReq.System, 2)
	assert.Contains(t, client.lastReq.System[0].Text, "tratamiento de agua")
	assert.NotNil(t, client.lastReq.System[0].CacheControl)
	assert.Equal(t, "Sector: Industrial.", client.lastReq.System[1].Text)
}

func TestGenerate_EmptyHistoryGetsSeedMessage(t *testing.T) {
	client := &fakeClient{resp: textResponse("hola")}
	g := New(client, Options{})

	_, err := g.Generate(context.Background(), nil, "")
	require.NoError(t, err)

	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "user", client.lastReq.Messages[0].Role)
}

func TestGenerate_CanceledContext(t *testing.T) {
	client := &fakeClient{resp: textResponse("ok")}
	g := New(client, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, nil, "")
	require.Error(t, err)
}
