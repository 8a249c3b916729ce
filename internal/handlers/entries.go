package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/pliu/entradas/internal/store"
)

type EntryHandler struct {
	Store  store.EntryStore
	Logger *log.Logger
}

type EntryRequest struct {
	Title    string  `json:"titulo"`
	City     string  `json:"ciudad"`
	Date     string  `json:"fecha"`
	Price    float64 `json:"precio"`
	SellerID jsonID  `json:"vendedor_id"`
}

func (req EntryRequest) fields() store.EntryFields {
	return store.EntryFields{Title: req.Title, City: req.City, Date: req.Date, Price: req.Price}
}

type PurchaseRequest struct {
	BuyerID jsonID `json:"comprador_id"`
}

const entryNotFound = "Entrada no encontrada"

func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	if err := requireID("vendedor_id", req.SellerID); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	id, err := h.Store.CreateEntry(r.Context(), req.SellerID.Value, req.fields())
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al guardar la entrada"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// ListEntries accepts the optional filters vendedor_id, comprador_id and
// disponibles (unsold only).
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var (
		filter store.EntryFilter
		err    error
	)
	if filter.SellerID, err = queryID(r, "vendedor_id"); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	if filter.BuyerID, err = queryID(r, "comprador_id"); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	switch r.URL.Query().Get("disponibles") {
	case "1", "true":
		filter.OnlyUnsold = true
	}

	entries, err := h.Store.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al obtener entradas"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), entryID)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindNotFound: entryNotFound})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	var req PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	if err := requireID("comprador_id", req.BuyerID); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	err = h.Store.Purchase(r.Context(), entryID, req.BuyerID.Value)
	if err != nil {
		msgs := messages{
			store.KindConflict: "Ya comprada",
			store.KindNotFound: entryNotFound,
			store.KindStore:    "Error al comprar",
		}
		if errors.Is(err, store.ErrSelfPurchase) {
			msgs[store.KindConflict] = "No puedes comprar tu propia entrada"
		}
		writeError(w, r, h.Logger, err, msgs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	if err := h.Store.DeleteEntry(r.Context(), entryID); err != nil {
		writeError(w, r, h.Logger, err, messages{
			store.KindConflict: "No se puede eliminar",
			store.KindNotFound: entryNotFound,
			store.KindStore:    "Error al eliminar",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdateEntry overwrites the entry fields, sold or not.
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	if err := h.Store.UpdateEntry(r.Context(), entryID, req.fields()); err != nil {
		writeError(w, r, h.Logger, err, messages{
			store.KindNotFound: entryNotFound,
			store.KindStore:    "Error al actualizar la entrada",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
