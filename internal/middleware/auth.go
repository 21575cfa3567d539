package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/parlakisik/event-escrow/internal/model"
)

const actorKey contextKey = "actor"

type actorHolderKey struct{}

// actorHolder lets Auth report the caller back to outer middleware.
type actorHolder struct {
	actor model.Actor
}

func withActorHolder(ctx context.Context, h *actorHolder) context.Context {
	return context.WithValue(ctx, actorHolderKey{}, h)
}

// KeyRing resolves API keys to actors.
type KeyRing struct {
	mu   sync.RWMutex
	keys map[string]model.Actor
}

func NewKeyRing(keys map[string]model.Actor) *KeyRing {
	k := &KeyRing{keys: make(map[string]model.Actor, len(keys))}
	for key, actor := range keys {
		k.keys[key] = actor
	}
	return k
}

func (k *KeyRing) Lookup(apiKey string) (model.Actor, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a, ok := k.keys[apiKey]
	return a, ok
}

func (k *KeyRing) Add(apiKey string, actor model.Actor) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[apiKey] = actor
}

// Auth identifies the caller from X-API-Key or a bearer token carrying the
// same key.
func Auth(keys *KeyRing) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}
			if apiKey == "" {
				WriteError(w, r, http.StatusUnauthorized, "authentication_required", "Authentication required")
				return
			}

			actor, ok := keys.Lookup(apiKey)
			if !ok {
				WriteError(w, r, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
				return
			}
			if h, ok := r.Context().Value(actorHolderKey{}).(*actorHolder); ok {
				h.actor = actor
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(actorKey).(model.Actor)
	return a, ok
}

// WriteError writes the shared error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(r.Context()),
		},
	})
}
