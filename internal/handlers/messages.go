package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/pliu/entradas/internal/store"
)

// MessageStore is what MessageHandler needs: the ledger plus the
// conversation view derived from it.
type MessageStore interface {
	store.MessageStore
	store.ConversationStore
}

type MessageHandler struct {
	Store  MessageStore
	Logger *log.Logger
}

type SendMessageRequest struct {
	SenderID   jsonID `json:"sender_id"`
	ReceiverID jsonID `json:"receiver_id"`
	EntryID    jsonID `json:"entry_id"`
	Content    string `json:"content"`
}

// MarkReadRequest accepts two shapes: {entry_id, sender_id, receiver_id}
// marks one sender's messages, {entry_id, user_id} marks every message
// addressed to the user.
type MarkReadRequest struct {
	EntryID    jsonID `json:"entry_id"`
	SenderID   jsonID `json:"sender_id"`
	ReceiverID jsonID `json:"receiver_id"`
	UserID     jsonID `json:"user_id"`
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	for _, f := range []struct {
		name string
		id   jsonID
	}{{"sender_id", req.SenderID}, {"receiver_id", req.ReceiverID}, {"entry_id", req.EntryID}} {
		if err := requireID(f.name, f.id); err != nil {
			writeError(w, r, h.Logger, err, nil)
			return
		}
	}

	id, err := h.Store.SendMessage(r.Context(), req.SenderID.Value, req.ReceiverID.Value, req.EntryID.Value, req.Content)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al enviar mensaje"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

func (h *MessageHandler) ListConversation(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r, "entryId")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	user1, err := pathID(r, "user1")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	user2, err := pathID(r, "user2")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	msgs, err := h.Store.ListConversation(r.Context(), entryID, user1, user2)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al obtener mensajes"})
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	if err := requireID("entry_id", req.EntryID); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	failed := messages{store.KindStore: "Error al marcar mensajes como leídos"}

	switch {
	case req.SenderID.Set || req.ReceiverID.Set:
		for _, f := range []struct {
			name string
			id   jsonID
		}{{"sender_id", req.SenderID}, {"receiver_id", req.ReceiverID}} {
			if err := requireID(f.name, f.id); err != nil {
				writeError(w, r, h.Logger, err, nil)
				return
			}
		}
		updated, err := h.Store.MarkRead(r.Context(), req.EntryID.Value, req.ReceiverID.Value, req.SenderID.Value)
		if err != nil {
			writeError(w, r, h.Logger, err, failed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "actualizados": updated})

	case req.UserID.Set:
		if err := requireID("user_id", req.UserID); err != nil {
			writeError(w, r, h.Logger, err, nil)
			return
		}
		updated, err := h.Store.MarkReadAll(r.Context(), req.EntryID.Value, req.UserID.Value)
		if err != nil {
			writeError(w, r, h.Logger, err, failed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})

	default:
		writeError(w, r, h.Logger, store.Validationf("sender_id and receiver_id, or user_id, are required"), nil)
	}
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	conversations, err := h.Store.ListConversations(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al obtener conversaciones"})
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}
