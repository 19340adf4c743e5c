package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-pos/internal/common"
)

var errMissingBearer = common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, nil)

// Middleware resolves the store owner from the access token.
type Middleware struct {
	Service *Service
}

// RequireAuth answers 401 unless the request carries a valid bearer token. The
// owner id lands on the context for common.OwnerID.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
			return
		}
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="pos"`)
			common.WriteError(w, errMissingBearer)
			return
		}
		ownerID, err := m.Service.ParseAccessToken(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="pos", error="invalid_token"`)
			common.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithOwnerID(r.Context(), ownerID)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
