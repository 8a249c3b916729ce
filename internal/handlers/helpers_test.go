package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/pliu/entradas/internal/store/sqlstore"
)

var (
	testCtx    = context.Background()
	testLogger = log.New(io.Discard)
)

func newTestStore(t *testing.T, opts ...sqlstore.Option) *sqlstore.SQLStore {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:", opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// call runs handler against a JSON request. vars are the mux route
// variables, body is marshalled unless it is a string.
func call(t *testing.T, handler http.HandlerFunc, method, target string, body any, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		t.Fatal(err)
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("handler returned wrong status code: got %v want %v (body %s)", rr.Code, want, rr.Body.String())
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, message, kind string) {
	t.Helper()
	expectStatus(t, rr, status)
	body := decode[map[string]string](t, rr)
	if message != "" && body["error"] != message {
		t.Errorf("Expected error %q, got %q", message, body["error"])
	}
	if body["kind"] != kind {
		t.Errorf("Expected kind %q, got %q", kind, body["kind"])
	}
}
