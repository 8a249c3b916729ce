package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/pliu/entradas/internal/auth"
	"github.com/pliu/entradas/internal/middleware"
	"github.com/pliu/entradas/internal/models"
)

var testSigner = auth.NewSigner([]byte("test-secret"))

func newAuthHandler(t *testing.T) *AuthHandler {
	return &AuthHandler{Store: newTestStore(t), Signer: testSigner, Logger: testLogger}
}

func register(t *testing.T, h *AuthHandler, name, email, password string) models.User {
	t.Helper()
	rr := call(t, h.Register, "POST", "/api/register", RegisterRequest{Name: name, Email: email, Password: password}, nil)
	expectStatus(t, rr, http.StatusOK)
	return decode[models.User](t, rr)
}

func TestRegister(t *testing.T) {
	h := newAuthHandler(t)

	rr := call(t, h.Register, "POST", "/api/register", RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secreto"}, nil)
	expectStatus(t, rr, http.StatusOK)

	body := decode[map[string]any](t, rr)
	if body["id"] != float64(1) || body["name"] != "Ana" || body["email"] != "ana@example.com" {
		t.Errorf("Unexpected register response %v", body)
	}
	if _, ok := body["password"]; ok {
		t.Error("Password hash must not be returned")
	}

	// Duplicate email
	rr = call(t, h.Register, "POST", "/api/register", RegisterRequest{Name: "Otra", Email: "ana@example.com", Password: "x"}, nil)
	expectError(t, rr, http.StatusBadRequest, "Correo ya registrado", "conflict")
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHandler(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing password", RegisterRequest{Name: "Ana", Email: "ana@example.com"}},
		{"missing email", RegisterRequest{Name: "Ana", Password: "secreto"}},
		{"malformed json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, h.Register, "POST", "/api/register", tt.body, nil)
			expectError(t, rr, http.StatusBadRequest, "", "validation")
		})
	}
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)
	user := register(t, h, "Ana", "ana@example.com", "secreto")

	rr := call(t, h.Login, "POST", "/api/login", Credentials{Email: "ana@example.com", Password: "secreto"}, nil)
	expectStatus(t, rr, http.StatusOK)

	got := decode[models.User](t, rr)
	if got.ID != user.ID || got.Name != "Ana" {
		t.Errorf("Unexpected login response %+v", got)
	}

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("Expected session cookie to be set")
	}
	if !session.HttpOnly {
		t.Error("Expected session cookie to be HttpOnly")
	}
	value, err := testSigner.Verify(session.Value)
	if err != nil {
		t.Fatalf("Session cookie does not verify: %v", err)
	}
	if value != strconv.FormatInt(user.ID, 10) {
		t.Errorf("Expected session for user %d, got %s", user.ID, value)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "Ana", "ana@example.com", "secreto")

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"wrong password", Credentials{Email: "ana@example.com", Password: "otro"}},
		{"unknown email", Credentials{Email: "nadie@example.com", Password: "secreto"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, h.Login, "POST", "/api/login", tt.creds, nil)
			expectError(t, rr, http.StatusUnauthorized, "Credenciales inválidas", "unauthorized")
			if len(rr.Result().Cookies()) != 0 {
				t.Error("Expected no cookie on failed login")
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newAuthHandler(t)

	rr := call(t, h.Logout, "POST", "/api/logout", nil, nil)
	expectStatus(t, rr, http.StatusOK)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.SessionCookie || cookies[0].MaxAge >= 0 {
		t.Errorf("Expected an expired session cookie, got %v", cookies)
	}
}

func TestSession(t *testing.T) {
	h := newAuthHandler(t)
	user := register(t, h, "Ana", "ana@example.com", "secreto")
	handler := middleware.AuthMiddleware(testSigner)(http.HandlerFunc(h.Session))

	req, _ := http.NewRequest("GET", "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: testSigner.Sign(strconv.FormatInt(user.ID, 10))})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusOK)
	if got := decode[models.User](t, rr); got.Email != "ana@example.com" {
		t.Errorf("Expected session user ana@example.com, got %+v", got)
	}

	// No cookie
	req, _ = http.NewRequest("GET", "/api/session", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusUnauthorized)

	// Signed id of a user that does not exist
	req, _ = http.NewRequest("GET", "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: testSigner.Sign("99")})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	expectError(t, rr, http.StatusNotFound, "Usuario no encontrado", "not_found")
}

func TestGetUser(t *testing.T) {
	h := newAuthHandler(t)
	user := register(t, h, "Ana", "ana@example.com", "secreto")

	rr := call(t, h.GetUser, "GET", "/api/users/1", nil, map[string]string{"id": strconv.FormatInt(user.ID, 10)})
	expectStatus(t, rr, http.StatusOK)
	if got := decode[models.User](t, rr); got.Name != "Ana" {
		t.Errorf("Expected Ana, got %+v", got)
	}

	rr = call(t, h.GetUser, "GET", "/api/users/99", nil, map[string]string{"id": "99"})
	expectError(t, rr, http.StatusNotFound, "Usuario no encontrado", "not_found")

	rr = call(t, h.GetUser, "GET", "/api/users/abc", nil, map[string]string{"id": "abc"})
	expectError(t, rr, http.StatusBadRequest, "", "validation")
}

func TestUpdateUser(t *testing.T) {
	h := newAuthHandler(t)
	ana := register(t, h, "Ana", "ana@example.com", "secreto")
	register(t, h, "Beto", "beto@example.com", "secreto")
	anaID := map[string]string{"id": strconv.FormatInt(ana.ID, 10)}

	rr := call(t, h.UpdateUser, "PUT", "/api/users/1", UpdateUserRequest{Name: "Ana María", Email: "anamaria@example.com"}, anaID)
	expectStatus(t, rr, http.StatusOK)

	rr = call(t, h.GetUser, "GET", "/api/users/1", nil, anaID)
	if got := decode[models.User](t, rr); got.Name != "Ana María" || got.Email != "anamaria@example.com" {
		t.Errorf("Update not applied: %+v", got)
	}

	rr = call(t, h.UpdateUser, "PUT", "/api/users/1", UpdateUserRequest{Name: "Ana", Email: "beto@example.com"}, anaID)
	expectError(t, rr, http.StatusBadRequest, "El correo ya está registrado.", "conflict")

	rr = call(t, h.UpdateUser, "PUT", "/api/users/99", UpdateUserRequest{Name: "X", Email: "x@example.com"}, map[string]string{"id": "99"})
	expectError(t, rr, http.StatusNotFound, "Usuario no encontrado", "not_found")
}

func TestDebugUsers(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "Ana", "ana@example.com", "secreto")
	register(t, h, "Beto", "beto@example.com", "secreto")

	rr := call(t, h.DebugUsers, "GET", "/api/debug/users", nil, nil)
	expectStatus(t, rr, http.StatusOK)

	users := decode[[]models.User](t, rr)
	if len(users) != 2 || users[0].Name != "Ana" || users[1].Name != "Beto" {
		t.Errorf("Unexpected users %+v", users)
	}
}
