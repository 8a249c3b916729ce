package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pliu/entradas/internal/middleware"
	"github.com/pliu/entradas/internal/models"
)

func TestStatsHandler(t *testing.T) {
	mh, s, m := newMessageHandler(t)
	h := &StatsHandler{Store: s, Logger: testLogger}

	if err := s.Purchase(testCtx, m.concierto, m.luis); err != nil {
		t.Fatal(err)
	}
	send(t, mh, map[string]any{"sender_id": m.luis, "receiver_id": m.ana, "entry_id": m.concierto, "content": "gracias"})
	send(t, mh, map[string]any{"sender_id": m.ana, "receiver_id": m.luis, "entry_id": m.concierto, "content": "de nada"})
	send(t, mh, map[string]any{"sender_id": m.eva, "receiver_id": m.ana, "entry_id": m.concierto, "content": "¿otra?"})

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"registrations", h.Registrations, 3},
		{"entradas-publicadas", h.EntriesPosted, 1},
		{"entradas-vendidas", h.EntriesSold, 1},
		{"mensajes", h.Messages, 3},
		{"conversaciones", h.Conversations, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, tt.handler, "GET", "/api/stats/"+tt.name, nil, nil)
			expectStatus(t, rr, http.StatusOK)
			if got := decode[map[string]int](t, rr)["total"]; got != tt.want {
				t.Errorf("Expected total %d, got %d", tt.want, got)
			}
		})
	}

	rr := call(t, h.Summary, "GET", "/api/stats", nil, nil)
	expectStatus(t, rr, http.StatusOK)
	want := models.Stats{Registrations: 3, EntriesPosted: 1, EntriesSold: 1, Messages: 3, Conversations: 2}
	if got := decode[models.Stats](t, rr); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestStatsStoreFailure(t *testing.T) {
	s := newTestStore(t)
	h := &StatsHandler{Store: s, Logger: testLogger}
	s.Close()

	rr := call(t, h.Registrations, "GET", "/api/stats/registrations", nil, nil)
	expectError(t, rr, http.StatusInternalServerError, "Error en la base de datos", "store")
}

func TestStoreFailureLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	s := newTestStore(t)
	h := &StatsHandler{Store: s, Logger: logger}
	s.Close()

	req := httptest.NewRequest("GET", "/api/stats/mensajes", nil)
	rr := httptest.NewRecorder()
	middleware.LoggingMiddleware(logger)(http.HandlerFunc(h.Messages)).ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusInternalServerError)
	out := buf.String()
	if n := strings.Count(out, "ERRO"); n != 1 {
		t.Errorf("Expected one error line, got %d in %q", n, out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "500") {
		t.Errorf("Expected an info request line with status 500, got %q", out)
	}
}
