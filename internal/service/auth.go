package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/internal/transport"
	pkg_hash "github.com/Skotchmaster/easystore/pkg/hash"
	"github.com/Skotchmaster/easystore/pkg/logging"
	"github.com/Skotchmaster/easystore/pkg/tokens"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Users         store.Collection[models.User]
	Tokens        store.Collection[models.RefreshToken]
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *AuthService) ttl() (time.Duration, time.Duration) {
	access, refresh := s.AccessTTL, s.RefreshTTL
	if access <= 0 {
		access = DefaultAccessTTL
	}
	if refresh <= 0 {
		refresh = DefaultRefreshTTL
	}
	return access, refresh
}

func (s *AuthService) findUser(ctx context.Context, username string) (*models.User, error) {
	users, err := s.Users.Find(ctx, store.Query{Where: store.Fields{models.FieldUsername: username}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return &users[0], nil
}

func credentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", validation("username and password are required")
	}
	return username, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username, err := credentials(username, password)
	if err != nil {
		return nil, err
	}

	if _, err := s.findUser(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: user %s already exists", ErrConflict, username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, classify(err, "lookup user")
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: pwHash}
	if err := s.Users.Insert(ctx, user); err != nil {
		return nil, classify(err, "insert user")
	}

	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	username, err := credentials(username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		l.Warn("login_failed", "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, classify(err, "lookup user")
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*tokens.Pair, error) {
	accessTTL, refreshTTL := s.ttl()
	now := time.Now()
	accessExp, refreshExp := now.Add(accessTTL), now.Add(refreshTTL)

	access, err := tokens.NewAccessToken(s.AccessSecret, user.ID, tokens.RoleFor(user.IsAdmin), accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := tokens.NewJTI()
	refresh, err := tokens.NewRefreshToken(s.RefreshSecret, user.ID, jti, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	rec := &models.RefreshToken{
		Meta:      models.Meta{ID: jti},
		UserID:    user.ID,
		TokenHash: pkg_hash.Sha256Hex(refresh),
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Tokens.Insert(ctx, rec); err != nil {
		return nil, classify(err, "store refresh token")
	}

	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued with the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	rec, err := s.Tokens.FindByID(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown token", ErrInvalidRefreshToken)
	}
	if err != nil {
		return nil, classify(err, "lookup refresh token")
	}
	if rec.Revoked || rec.ExpiresAt <= time.Now().Unix() || rec.TokenHash != pkg_hash.Sha256Hex(refreshToken) {
		l.Warn("refresh_rejected", "jti", claims.ID, "revoked", rec.Revoked)
		return nil, fmt.Errorf("%w: revoked or expired", ErrInvalidRefreshToken)
	}

	if _, err := s.Tokens.UpdateFields(ctx, rec.ID, store.Fields{models.FieldRevoked: true}); err != nil {
		return nil, classify(err, "revoke refresh token")
	}

	user, err := s.Users.FindByID(ctx, rec.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user is gone", ErrInvalidRefreshToken)
	}
	if err != nil {
		return nil, classify(err, "lookup user")
	}

	return s.issue(ctx, user)
}

// LogOut revokes the presented refresh token. Unknown or malformed tokens
// are ignored.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}

	_, err = s.Tokens.UpdateFields(ctx, claims.ID, store.Fields{models.FieldRevoked: true})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return classify(err, "revoke refresh token")
	}
	return nil
}

// ResetUser creates the user or overwrites its password and role, and
// revokes every refresh token it holds.
func (s *AuthService) ResetUser(ctx context.Context, req transport.ResetUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.reset")

	username, err := credentials(req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.findUser(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user := &models.User{Username: username, PasswordHash: pwHash, IsAdmin: req.IsAdmin}
		if err := s.Users.Insert(ctx, user); err != nil {
			return nil, classify(err, "insert user")
		}
		l.Info("user_created", "user_id", user.ID, "is_admin", user.IsAdmin)
		return user, nil
	case err != nil:
		return nil, classify(err, "lookup user")
	}

	user, err := s.Users.UpdateFields(ctx, existing.ID, store.Fields{
		models.FieldPasswordHash: pwHash,
		models.FieldIsAdmin:      req.IsAdmin,
	})
	if err != nil {
		return nil, classify(err, "update user")
	}

	if err := s.revokeAll(ctx, user.ID); err != nil {
		l.Warn("revoke_tokens_failed", "user_id", user.ID, "error", err)
	}
	l.Info("user_reset", "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, nil
}

func (s *AuthService) revokeAll(ctx context.Context, userID string) error {
	active, err := s.Tokens.Find(ctx, store.Query{Where: store.Fields{
		models.FieldUserID:  userID,
		models.FieldRevoked: false,
	}})
	if err != nil {
		return err
	}
	for _, t := range active {
		if _, err := s.Tokens.UpdateFields(ctx, t.ID, store.Fields{models.FieldRevoked: true}); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin, or promotes an existing account
// of that name without touching its password. Empty credentials are a no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap")

	existing, err := s.findUser(ctx, username)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return nil
		}
		if _, err := s.Users.UpdateFields(ctx, existing.ID, store.Fields{models.FieldIsAdmin: true}); err != nil {
			return classify(err, "promote admin")
		}
		l.Info("admin_promoted", "username", username)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return classify(err, "lookup admin")
	}

	_, err = s.ResetUser(ctx, transport.ResetUserRequest{Username: username, Password: password, IsAdmin: true})
	if err == nil {
		l.Info("admin_created", "username", username)
	}
	return err
}
