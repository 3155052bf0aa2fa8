package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"vidstego/logger"
	"vidstego/models"
)

type ctxKey struct{}

// Middleware rejects requests without a valid bearer token. Paths listed
// in open bypass the check.
func Middleware(cfg VerifyConfig, open ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(open))
	for _, p := range open {
		public[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := Verify(token, cfg)
			if err != nil {
				logger.Warnf("Rejected token from %s: %v", r.RemoteAddr, err)
				unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}

// FromContext returns the claims attached by Middleware, if any.
func FromContext(ctx context.Context) (*models.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*models.Claims)
	return c, ok
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="vidstego"`)
	w.WriteHeader(http.StatusUnauthorized)
	body, _ := sonic.Marshal(map[string]string{"detail": detail})
	w.Write(body)
}
