// Package auth implements the identity provider: it verifies access tokens
// into principals and notifies listeners of sign-in, sign-out and refresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by gallery access tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the signed-in user as seen by the client.
type Identity struct {
	Principal models.Principal
	Email     string
	ExpiresAt time.Time
}

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

// Provider holds the current identity and fans out change events.
type Provider struct {
	secret []byte
	now    func() time.Time

	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(store.IdentityEvent)
	nextID    int
}

var _ store.Identity = (*Provider)(nil)

// NewProvider creates a provider verifying HMAC-signed tokens with secret.
func NewProvider(secret string) *Provider {
	return &Provider{
		secret:    []byte(secret),
		now:       time.Now,
		listeners: make(map[int]func(store.IdentityEvent)),
	}
}

// ParseToken verifies token and returns the identity it carries.
func (p *Provider) ParseToken(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id := Identity{Principal: models.Principal(claims.Subject), Email: claims.Email}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// SignIn verifies token and makes its principal current.
func (p *Provider) SignIn(ctx context.Context, token string) (Identity, error) {
	id, err := p.ParseToken(token)
	if err != nil {
		return Identity{}, models.NewUnauthenticatedError(err.Error())
	}

	p.mu.Lock()
	p.current = &id
	p.mu.Unlock()

	observability.Logger.InfoContext(ctx, "signed in", "principal", string(id.Principal))
	p.emit(store.IdentityEvent{Kind: store.SignedIn, Principal: id.Principal})
	return id, nil
}

// Refresh replaces the token of the current principal.
func (p *Provider) Refresh(ctx context.Context, token string) error {
	id, err := p.ParseToken(token)
	if err != nil {
		return models.NewUnauthenticatedError(err.Error())
	}

	p.mu.Lock()
	if p.current == nil || p.current.Principal != id.Principal {
		p.mu.Unlock()
		return models.NewUnauthenticatedError("refresh token belongs to a different principal")
	}
	p.current = &id
	p.mu.Unlock()

	p.emit(store.IdentityEvent{Kind: store.TokenRefreshed, Principal: id.Principal})
	return nil
}

// SignOut clears the current identity. Signing out while anonymous is a no-op.
func (p *Provider) SignOut(ctx context.Context) {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.mu.Unlock()

	if prev == nil {
		return
	}
	observability.Logger.InfoContext(ctx, "signed out", "principal", string(prev.Principal))
	p.emit(store.IdentityEvent{Kind: store.SignedOut, Principal: prev.Principal})
}

// Current returns the signed-in identity, or false when anonymous or expired.
func (p *Provider) Current() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Identity{}, false
	}
	if !p.current.ExpiresAt.IsZero() && !p.now().Before(p.current.ExpiresAt) {
		return Identity{}, false
	}
	return *p.current, true
}

// CurrentPrincipal implements store.Identity.
func (p *Provider) CurrentPrincipal(_ context.Context) (models.Principal, error) {
	id, ok := p.Current()
	if !ok {
		return models.NoPrincipal, nil
	}
	return id.Principal, nil
}

// OnChange implements store.Identity.
func (p *Provider) OnChange(fn func(store.IdentityEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// HandleRemoteEvent applies an identity event that originated in another
// session of the same principal, e.g. a revoked login.
func (p *Provider) HandleRemoteEvent(ctx context.Context, ev store.IdentityEvent) {
	if ev.Kind != store.SignedOut {
		return
	}
	p.mu.Lock()
	matches := p.current != nil && p.current.Principal == ev.Principal
	p.mu.Unlock()
	if matches {
		p.SignOut(ctx)
	}
}

func (p *Provider) emit(ev store.IdentityEvent) {
	observability.SessionEvents.WithLabelValues(string(ev.Kind)).Inc()

	p.mu.Lock()
	fns := make([]func(store.IdentityEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// IssueToken signs an access token for principal. Used by tooling and tests;
// production tokens come from the hosted identity service.
func IssueToken(secret string, principal models.Principal, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(principal),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
