package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/internal/store/storetest"
	"github.com/Skotchmaster/easystore/internal/transport"
	"github.com/Skotchmaster/easystore/pkg/tokens"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	s := storetest.NewSQLite(t)
	return &AuthService{
		Users:         s.Users,
		Tokens:        s.Tokens,
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAuthService_Register(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " ann ", "password")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "password", u.PasswordHash)

	_, err = svc.Register(ctx, "ann", "other")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "", "password")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, "bob", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ann", "password")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "ann", "password")
	require.NoError(t, err)
	assert.False(t, pair.IsAdmin)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, tokens.RoleUser, claims.Role)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), pair.AccessExp, 5*time.Second)

	_, err = svc.Login(ctx, "ann", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann", "password")
	require.NoError(t, err)
	first, err := svc.Login(ctx, "ann", "password")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshUnknownJTI(t *testing.T) {
	svc := newTestAuthService(t)

	tok, err := tokens.NewRefreshToken(svc.RefreshSecret, "u1", tokens.NewJTI(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_LogOut(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann", "password")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "ann", "password")
	require.NoError(t, err)

	require.NoError(t, svc.LogOut(ctx, pair.RefreshToken))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, svc.LogOut(ctx, "garbage"))
}

func TestAuthService_ResetUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann", "password")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "ann", "password")
	require.NoError(t, err)

	u, err := svc.ResetUser(ctx, transport.ResetUserRequest{Username: "ann", Password: "new-pass", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = svc.Login(ctx, "ann", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	pair2, err := svc.Login(ctx, "ann", "new-pass")
	require.NoError(t, err)
	assert.True(t, pair2.IsAdmin)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	created, err := svc.ResetUser(ctx, transport.ResetUserRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, created.IsAdmin)

	_, err = svc.ResetUser(ctx, transport.ResetUserRequest{Username: "bob"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
	all, err := svc.Users.Find(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "secret"))
	pair, err := svc.Login(ctx, "root", "secret")
	require.NoError(t, err)
	assert.True(t, pair.IsAdmin)

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "ignored"))
	_, err = svc.Login(ctx, "root", "secret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, "carol", "x"))
	users, err := svc.Users.Find(ctx, store.Query{Where: store.Fields{models.FieldUsername: "carol"}})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)
}
