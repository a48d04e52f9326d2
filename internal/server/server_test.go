package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/flow"
	"github.com/hidrotec-mx/intake-cli/internal/model"
	"github.com/hidrotec-mx/intake-cli/internal/session"
)

type fixedGenerator struct{}

func (fixedGenerator) Generate(context.Context, []model.ChatMessage, string) (string, error) {
	return "respuesta libre", nil
}

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	mgr := session.NewManager(session.NewMemory(time.Hour))
	ctrl := flow.New(cat, fixedGenerator{}, flow.Options{})
	return New(cat, ctrl, mgr, []string{"*"}), mgr
}

func postChat(t *testing.T, srv *Server, sessionID, message string) model.Outbound {
	t.Helper()
	body, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out model.Outbound
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestChat_MintsSessionID(t *testing.T) {
	srv, _ := newTestServer(t)

	out := postChat(t, srv, "", "hola")

	assert.NotEmpty(t, out.SessionID)
	assert.Contains(t, out.Reply, "1. Industrial")
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		bytes.NewReader([]byte(`{"session_id":"s1","message":""}`)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_InvalidBodyRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{broken`)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_StatePersistsAcrossRequests(t *testing.T) {
	srv, mgr := newTestServer(t)

	first := postChat(t, srv, "", "hola")
	id := first.SessionID

	out := postChat(t, srv, id, "1")
	assert.Contains(t, out.Reply, "1. Textil")

	st, err := mgr.Peek(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Industrial", st.Sector)
}

func TestSectors(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/sectors", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []sectorEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 4)
	assert.Equal(t, "Industrial", out[0].Name)
	assert.Contains(t, out[0].Subsectors, "Textil")
}

func TestProposal_UnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/proposal", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProposal_IncompleteSession(t *testing.T) {
	srv, mgr := newTestServer(t)

	require.NoError(t, mgr.Store().Save(context.Background(), model.NewState("s1")))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/proposal", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProposal_CompletedSession(t *testing.T) {
	srv, mgr := newTestServer(t)

	st := model.NewState("s1")
	st.Sector = "Industrial"
	st.Subsector = "Textil"
	st.Completed = true
	st.SetAnswer("nombre_empresa", "Acme Textil")
	require.NoError(t, mgr.Store().Save(context.Background(), st))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/proposal", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Propuesta de tratamiento de agua")
	assert.Contains(t, rec.Body.String(), "Acme Textil")
}

func TestProposalHTML_CompletedSession(t *testing.T) {
	srv, mgr := newTestServer(t)

	st := model.NewState("s1")
	st.Sector = "Comercial"
	st.Subsector = "Hotelería"
	st.Completed = true
	require.NoError(t, mgr.Store().Save(context.Background(), st))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/proposal.html", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Propuesta de tratamiento de agua</h1>")
}
