package auth

import (
	"context"
	"testing"
	"time"

	"linesen/internal/models"
	"linesen/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters!!"

func issue(t *testing.T, principal models.Principal, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(testSecret, principal, string(principal)+"@example.com", ttl)
	require.NoError(t, err)
	return token
}

func TestProvider_SignInSignOutEvents(t *testing.T) {
	p := NewProvider(testSecret)
	ctx := context.Background()

	var events []store.IdentityEvent
	unsubscribe := p.OnChange(func(ev store.IdentityEvent) { events = append(events, ev) })

	principal, err := p.CurrentPrincipal(ctx)
	require.NoError(t, err)
	assert.True(t, principal.Anonymous())

	id, err := p.SignIn(ctx, issue(t, "x", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.Principal("x"), id.Principal)
	assert.Equal(t, "x@example.com", id.Email)

	require.NoError(t, p.Refresh(ctx, issue(t, "x", 2*time.Hour)))
	p.SignOut(ctx)
	p.SignOut(ctx)

	require.Len(t, events, 3)
	assert.Equal(t, store.SignedIn, events[0].Kind)
	assert.Equal(t, store.TokenRefreshed, events[1].Kind)
	assert.Equal(t, store.SignedOut, events[2].Kind)
	assert.Equal(t, models.Principal("x"), events[2].Principal)

	unsubscribe()
	unsubscribe()
	_, err = p.SignIn(ctx, issue(t, "y", time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestProvider_RejectsBadTokens(t *testing.T) {
	p := NewProvider(testSecret)
	ctx := context.Background()

	other, err := IssueToken("another-secret-another-secret-xxxx", "x", "", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": other,
		"expired":      issue(t, "x", -time.Minute),
		"no subject":   noSubject,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.SignIn(ctx, token)
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
		})
	}

	principal, err := p.CurrentPrincipal(ctx)
	require.NoError(t, err)
	assert.True(t, principal.Anonymous())
}

func TestProvider_RefreshForOtherPrincipalFails(t *testing.T) {
	p := NewProvider(testSecret)
	ctx := context.Background()

	_, err := p.SignIn(ctx, issue(t, "x", time.Hour))
	require.NoError(t, err)

	err = p.Refresh(ctx, issue(t, "y", time.Hour))
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	principal, _ := p.CurrentPrincipal(ctx)
	assert.Equal(t, models.Principal("x"), principal)
}

func TestProvider_ExpiredIdentityIsAnonymous(t *testing.T) {
	p := NewProvider(testSecret)
	_, err := p.SignIn(context.Background(), issue(t, "x", time.Hour))
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	principal, err := p.CurrentPrincipal(context.Background())
	require.NoError(t, err)
	assert.True(t, principal.Anonymous())
}

func TestProvider_HandleRemoteEvent(t *testing.T) {
	p := NewProvider(testSecret)
	ctx := context.Background()
	_, err := p.SignIn(ctx, issue(t, "x", time.Hour))
	require.NoError(t, err)

	p.HandleRemoteEvent(ctx, store.IdentityEvent{Kind: store.SignedOut, Principal: "y"})
	_, ok := p.Current()
	assert.True(t, ok)

	p.HandleRemoteEvent(ctx, store.IdentityEvent{Kind: store.SignedOut, Principal: "x"})
	_, ok = p.Current()
	assert.False(t, ok)
}
