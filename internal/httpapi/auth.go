package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

// Claims is the bearer token payload. The subject is the actor id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// ActorFrom returns the identity attached by the auth middleware.
func ActorFrom(ctx context.Context) (types.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(types.Actor)
	return a, ok
}

type authenticator struct {
	secret     []byte
	devHeaders bool
	adminRoles map[string]struct{}
}

func newAuthenticator(secret, env string, adminRoles []string) *authenticator {
	a := &authenticator{
		secret:     []byte(secret),
		devHeaders: env == "dev",
		adminRoles: make(map[string]struct{}),
	}
	if len(adminRoles) == 0 {
		adminRoles = []string{types.RoleAdmin}
	}
	for _, r := range adminRoles {
		a.adminRoles[strings.ToLower(r)] = struct{}{}
	}
	return a
}

var errNoCredentials = errors.New("missing credentials")

// Token issuance lives outside this service; only verification happens here.
func (a *authenticator) parse(token string) (types.Actor, error) {
	if len(a.secret) == 0 {
		return types.Actor{}, errors.New("bearer tokens are not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return types.Actor{}, err
	}
	if claims.Subject == "" {
		return types.Actor{}, errors.New("token has no subject")
	}
	return types.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

func (a *authenticator) actor(r *http.Request) (types.Actor, error) {
	if ah := r.Header.Get("Authorization"); ah != "" {
		scheme, token, ok := strings.Cut(ah, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return types.Actor{}, errors.New("authorization must be a bearer token")
		}
		return a.parse(strings.TrimSpace(token))
	}
	if a.devHeaders {
		if id := strings.TrimSpace(r.Header.Get(headerActorID)); id != "" {
			return types.Actor{ID: id, Role: strings.TrimSpace(r.Header.Get(headerActorRole))}, nil
		}
	}
	return types.Actor{}, errNoCredentials
}

func (a *authenticator) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.actor(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func (a *authenticator) isAdmin(role string) bool {
	_, ok := a.adminRoles[strings.ToLower(role)]
	return ok
}

// requireAdmin must run after identify.
func (a *authenticator) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !a.isAdmin(actor.Role) {
			writeError(w, r, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
