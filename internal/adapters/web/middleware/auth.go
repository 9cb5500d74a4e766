package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

type contextKey string

const SubscriberContextKey contextKey = "subscriber"

// AuthMiddleware authenticates requests with a subscriber API key.
// Expected header: "Authorization: Bearer <subscriberID>:<apiKey>".
// The key is verified against the subscriber's stored bcrypt hash.
func AuthMiddleware(subs ports.SubscriberRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			id, key, ok := strings.Cut(token, ":")
			if !ok || id == "" || key == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sub, err := subs.GetSubscriber(r.Context(), id)
			if err != nil || sub == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if bcrypt.CompareHashAndPassword([]byte(sub.APIKeyHash), []byte(key)) != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SubscriberContextKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubscriberFromContext returns the authenticated subscriber, or nil.
func SubscriberFromContext(ctx context.Context) *domain.Subscriber {
	sub, _ := ctx.Value(SubscriberContextKey).(*domain.Subscriber)
	return sub
}
