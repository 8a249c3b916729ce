package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pliu/entradas/internal/auth"
	"github.com/pliu/entradas/internal/middleware"
	"github.com/pliu/entradas/internal/models"
	"github.com/pliu/entradas/internal/store"
)

type AuthHandler struct {
	Store         store.UserStore
	Signer        *auth.Signer
	Logger        *log.Logger
	SecureCookies bool
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}
	if req.Password == "" {
		writeError(w, r, h.Logger, store.Validationf("password is required"), nil)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al registrar usuario"})
		return
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: hashedPassword,
	}
	if _, err := h.Store.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, h.Logger, err, messages{
			store.KindConflict: "Correo ya registrado",
			store.KindStore:    "Error al registrar usuario",
		})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), strings.TrimSpace(creds.Email))
	if err != nil && store.KindOf(err) != store.KindNotFound {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error al iniciar sesión"})
		return
	}
	if err != nil || !auth.CheckPassword(user.Password, creds.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Credenciales inválidas", "kind": "unauthorized"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    h.Signer.Sign(strconv.FormatInt(user.ID, 10)),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session returns the user behind the session cookie. It must run behind
// middleware.AuthMiddleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "No autorizado", "kind": "unauthorized"})
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindNotFound: "Usuario no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindNotFound: "Usuario no encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err, nil)
		return
	}

	err = h.Store.UpdateUser(r.Context(), userID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, r, h.Logger, err, messages{
			store.KindConflict: "El correo ya está registrado.",
			store.KindNotFound: "Usuario no encontrado",
			store.KindStore:    "Error al actualizar el usuario",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DebugUsers lists every user. Only routed when debug is enabled.
func (h *AuthHandler) DebugUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err, messages{store.KindStore: "Error en la base de datos"})
		return
	}
	writeJSON(w, http.StatusOK, users)
}
