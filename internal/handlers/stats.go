package handlers

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/pliu/entradas/internal/models"
	"github.com/pliu/entradas/internal/store"
)

type StatsStore interface {
	store.StatsStore
	CountConversations(ctx context.Context) (int, error)
}

type StatsHandler struct {
	Store  StatsStore
	Logger *log.Logger
}

func (h *StatsHandler) total(w http.ResponseWriter, r *http.Request, count func(context.Context) (int, error), failure string) {
	n, err := count(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: failure})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": n})
}

func (h *StatsHandler) Registrations(w http.ResponseWriter, r *http.Request) {
	h.total(w, r, h.Store.CountUsers, "Error en la base de datos")
}

func (h *StatsHandler) EntriesPosted(w http.ResponseWriter, r *http.Request) {
	h.total(w, r, h.Store.CountEntries, "Error al contar entradas")
}

func (h *StatsHandler) EntriesSold(w http.ResponseWriter, r *http.Request) {
	h.total(w, r, h.Store.CountSoldEntries, "Error al contar entradas vendidas")
}

func (h *StatsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	h.total(w, r, h.Store.CountMessages, "Error al contar mensajes")
}

func (h *StatsHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	h.total(w, r, h.Store.CountConversations, "Error al contar conversaciones")
}

// Summary returns every counter in one response.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats models.Stats
	counters := []struct {
		dst   *int
		count func(context.Context) (int, error)
	}{
		{&stats.Registrations, h.Store.CountUsers},
		{&stats.EntriesPosted, h.Store.CountEntries},
		{&stats.EntriesSold, h.Store.CountSoldEntries},
		{&stats.Messages, h.Store.CountMessages},
		{&stats.Conversations, h.Store.CountConversations},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al obtener estadísticas"})
			return
		}
		*c.dst = n
	}
	writeJSON(w, http.StatusOK, stats)
}
