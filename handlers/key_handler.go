package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mapkit/middleware"
	"mapkit/models"
	"mapkit/utils/errors"
)

// KeyService is the slice of the key store the handler needs.
type KeyService interface {
	Issue(ctx context.Context, label string) (string, models.APIKey, error)
	Verify(ctx context.Context, plaintext string) bool
	Revoke(ctx context.Context, id string) error
}

// KeyHandler serves the verify endpoint the SDK checks keys against, plus
// the JWT-protected admin routes for provisioning keys.
type KeyHandler struct {
	keys          KeyService
	jwtSecret     string
	adminPassHash []byte
}

func NewKeyHandler(keys KeyService, jwtSecret, adminPassword string) (*KeyHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &KeyHandler{keys: keys, jwtSecret: jwtSecret, adminPassHash: hash}, nil
}

// VerifyKey answers GET /verify?key=. The response is always HTTP 200 with
// a valid flag; a missing or unknown key is simply invalid.
func (h *KeyHandler) VerifyKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	valid := key != "" && h.keys.Verify(r.Context(), key)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"valid": valid})
}

// AdminLogin exchanges the admin password for a short-lived JWT.
func (h *KeyHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if bcrypt.CompareHashAndPassword(h.adminPassHash, []byte(input.Password)) != nil {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
}

// IssueKey provisions a new API key. The plaintext is returned once.
func (h *KeyHandler) IssueKey(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	plaintext, key, err := h.keys.Issue(r.Context(), input.Label)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"key":   plaintext,
		"id":    key.ID,
		"label": key.Label,
	})
}

// RevokeKey deactivates a key by ID.
func (h *KeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.keys.Revoke(r.Context(), input.ID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
