package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/nexaplatform/nexa-rewards/internal/config"
)

// AdminHandler sets object structure.
type AdminHandler struct {
	cfg *config.AdminConfig
}

// NewAdminHandler initializes a new admin panel guard.
func NewAdminHandler(cfg *config.AdminConfig) (*AdminHandler, error) {
	if cfg == nil {
		return nil, errors.New("nil admin config was found")
	}
	return &AdminHandler{cfg: cfg}, nil
}

// AdminHandle rejects requests whose X-Admin-Pass header does not match the
// configured password. An unset password disables the whole admin surface.
func (a *AdminHandler) AdminHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.AdminPassword == "" {
			http.Error(w, "Admin access is disabled", http.StatusForbidden)
			return
		}
		pass := r.Header.Get("X-Admin-Pass")
		if subtle.ConstantTimeCompare([]byte(pass), []byte(a.cfg.AdminPassword)) != 1 {
			http.Error(w, "Admin authorization required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
