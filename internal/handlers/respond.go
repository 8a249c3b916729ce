package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/pliu/entradas/internal/middleware"
	"github.com/pliu/entradas/internal/store"
)

// messages holds the user-facing text for each error kind of one operation.
type messages map[store.Kind]string

var defaultMessages = messages{
	store.KindNotFound:   "No encontrado",
	store.KindConflict:   "Conflicto",
	store.KindValidation: "Datos inválidos",
	store.KindStore:      "Error interno",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and a JSON body carrying a short
// message and the error kind. Validation errors keep their own detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error, msgs messages) {
	kind := store.KindOf(err)

	message, ok := msgs[kind]
	if !ok {
		message = defaultMessages[kind]
	}
	if kind == store.KindValidation && !ok {
		message = strings.TrimPrefix(err.Error(), store.ErrValidation.Error()+": ")
	}

	status := http.StatusBadRequest
	switch kind {
	case store.KindNotFound:
		status = http.StatusNotFound
	case store.KindStore:
		status = http.StatusInternalServerError
		if logger == nil {
			logger = log.Default()
		}
		logger.Error(message, "err", err, "request_id", middleware.RequestID(r.Context()))
	}

	writeJSON(w, status, map[string]string{"error": message, "kind": string(kind)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return store.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

// pathID parses a numeric route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, store.Validationf("%s must be a positive integer", name)
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, store.Validationf("%s must be a positive integer", name)
	}
	return id, nil
}

// jsonID accepts an id as a JSON number or a numeric string, since the
// frontend keeps user ids in localStorage as strings.
type jsonID struct {
	Value int64
	Set   bool
}

func (id *jsonID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	id.Value, id.Set = v, true
	return nil
}

func (id jsonID) MarshalJSON() ([]byte, error) {
	if !id.Set {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, id.Value, 10), nil
}

func requireID(name string, id jsonID) error {
	if !id.Set || id.Value <= 0 {
		return store.Validationf("%s is required", name)
	}
	return nil
}
