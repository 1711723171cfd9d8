package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/briefing-platform/internal/llm"
	"github.com/capitalize-ai/briefing-platform/internal/middleware"
	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/internal/service"
	"github.com/capitalize-ai/briefing-platform/internal/store/memory"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
)

const testSecret = "test-secret"

type gatewayFunc func(ctx context.Context, persona *model.Persona, prompt string) (string, error)

func (f gatewayFunc) Call(ctx context.Context, persona *model.Persona, prompt string) (string, error) {
	return f(ctx, persona, prompt)
}

type testServer struct {
	router          http.Handler
	reply           func(persona *model.Persona) (string, error)
	compilerPersona string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNop()
	personas := memory.NewPersonaStore(
		&model.Persona{
			Name:        "Ana",
			EndpointURL: "http://ana.invalid",
			EndpointKey: "sk-ana",
			Script:      map[string]string{"context": "Você é Ana.", "intro": "Oi, sou a Ana."},
		},
		&model.Persona{
			Name:        "Compilador",
			EndpointURL: "http://compiler.invalid",
			Script:      map[string]string{"context": "Gere JSON."},
		},
	)
	turns := memory.NewConversationStore()
	briefings := memory.NewBriefingStore()
	locks := service.NewKeyedLocker()

	ts := &testServer{compilerPersona: "Compilador"}
	ts.reply = func(*model.Persona) (string, error) { return "ok", nil }
	gw := gatewayFunc(func(_ context.Context, p *model.Persona, _ string) (string, error) {
		return ts.reply(p)
	})

	briefingSvc := service.NewBriefingService(briefings, turns, log)
	dialogSvc, err := service.NewDialogService(personas, turns, gw, locks, nil, service.DefaultDialogConfig(), log)
	require.NoError(t, err)
	compilerSvc := service.NewCompilerService(personas, turns, briefings, gw, locks, nil, log)

	bh := NewBriefingHandler(briefingSvc, compilerSvc, "Compilador", log)
	dh := NewDialogHandler(dialogSvc, briefingSvc, log)
	ph := NewPersonaHandler(personas)
	hh := NewHealthHandler(map[string]ReadinessCheck{
		"compiler_persona": func(ctx context.Context) error {
			_, err := personas.GetPersona(ctx, ts.compilerPersona)
			return err
		},
	})

	r := chi.NewRouter()
	r.Get("/ready", hh.Ready)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{Secret: testSecret}))
		r.Get("/personas/{name}", ph.Get)
		r.Route("/briefings", func(r chi.Router) {
			r.Post("/", bh.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bh.Get)
				r.Get("/turns", bh.Turns)
				r.Post("/dialog", dh.Continue)
				r.Post("/compile", bh.Compile)
			})
		})
	})

	ts.router = r
	return ts
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (ts *testServer) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, user))

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createBriefing(t *testing.T, user string) string {
	t.Helper()
	rec := ts.do(t, user, http.MethodPost, "/api/v1/briefings", map[string]string{"title": "Site novo"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b model.Briefing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestDialogFlow(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createBriefing(t, "u1")

	ts.reply = func(*model.Persona) (string, error) { return "Tudo anotado! FINALIZAR API", nil }
	rec := ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/dialog",
		model.ContinueDialogRequest{Persona: "Ana", Text: "Quero um site"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.DialogResult
	decodeBody(t, rec, &res)
	assert.Equal(t, "Tudo anotado!", res.Text)
	assert.True(t, res.Finished)

	rec = ts.do(t, "u1", http.MethodGet, "/api/v1/briefings/"+id+"/turns", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var turns model.ListTurnsResponse
	decodeBody(t, rec, &turns)
	require.Equal(t, 2, turns.Total)
	assert.Equal(t, "user", turns.Turns[0].Sender)
	assert.Equal(t, "Ana", turns.Turns[1].Sender)
}

func TestDialogRejectsOtherOwner(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createBriefing(t, "u1")

	rec := ts.do(t, "u2", http.MethodPost, "/api/v1/briefings/"+id+"/dialog",
		model.ContinueDialogRequest{Persona: "Ana", Text: "oi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "u2", http.MethodGet, "/api/v1/briefings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDialogValidation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createBriefing(t, "u1")

	tests := []struct {
		name string
		path string
		body any
	}{
		{"bad id", "/api/v1/briefings/not-a-uuid/dialog", model.ContinueDialogRequest{Persona: "Ana", Text: "oi"}},
		{"empty text", "/api/v1/briefings/" + id + "/dialog", model.ContinueDialogRequest{Persona: "Ana", Text: "  "}},
		{"empty persona", "/api/v1/briefings/" + id + "/dialog", model.ContinueDialogRequest{Text: "oi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "u1", http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDialogErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		persona string
		err     error
		status  int
	}{
		{"unknown persona", "Bruno", nil, http.StatusInternalServerError},
		{"upstream http", "Ana", &llm.HTTPError{StatusCode: 401, Body: "bad key sk-ana"}, http.StatusBadGateway},
		{"upstream unavailable", "Ana", fmt.Errorf("%w: refused", llm.ErrUpstreamUnavailable), http.StatusBadGateway},
		{"upstream timeout", "Ana", fmt.Errorf("%w: %w", llm.ErrUpstreamUnavailable, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"malformed", "Ana", fmt.Errorf("%w: eof", llm.ErrUpstreamResponseMalformed), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			id := ts.createBriefing(t, "u1")
			ts.reply = func(*model.Persona) (string, error) { return "", tt.err }

			rec := ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/dialog",
				model.ContinueDialogRequest{Persona: tt.persona, Text: "oi"})

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "sk-ana")
		})
	}
}

func TestCompileFlow(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createBriefing(t, "u1")

	rec := ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/compile", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "empty history")

	rec = ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/dialog",
		model.ContinueDialogRequest{Persona: "Ana", Text: "Quero um site"})
	require.Equal(t, http.StatusOK, rec.Code)

	ts.reply = func(p *model.Persona) (string, error) {
		assert.Equal(t, "Compilador", p.Name)
		return "```json\n{\"objetivo\":\"site\"}\n```", nil
	}
	rec = ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/compile", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.CompileBriefingResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, map[string]any{"objetivo": "site"}, res.Content)
	assert.Equal(t, model.BriefingStatusCompiled, res.Status)

	rec = ts.do(t, "u1", http.MethodGet, "/api/v1/briefings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var b model.Briefing
	decodeBody(t, rec, &b)
	assert.Equal(t, model.BriefingStatusCompiled, b.Status)
	assert.Equal(t, "Compilador", b.LastEditedBy)
	assert.Equal(t, map[string]any{"objetivo": "site"}, b.Content)

	ts.reply = func(*model.Persona) (string, error) { return "não sei", nil }
	rec = ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/compile", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCompilePersonaOverride(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createBriefing(t, "u1")
	ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/dialog",
		model.ContinueDialogRequest{Persona: "Ana", Text: "oi"})

	var used string
	ts.reply = func(p *model.Persona) (string, error) {
		used = p.Name
		return `{"a":"b"}`, nil
	}
	rec := ts.do(t, "u1", http.MethodPost, "/api/v1/briefings/"+id+"/compile", model.CompileBriefingRequest{Persona: "Ana"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana", used)
}

func TestGetPersonaHidesKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "u1", http.MethodGet, "/api/v1/personas/Ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oi, sou a Ana.")
	assert.NotContains(t, rec.Body.String(), "sk-ana")
	assert.NotContains(t, rec.Body.String(), "ana.invalid")

	rec = ts.do(t, "u1", http.MethodGet, "/api/v1/personas/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/briefings", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReady(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"compiler_persona":"ok"}}`, rec.Body.String())

	ts.compilerPersona = "Ausente"
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")
}
