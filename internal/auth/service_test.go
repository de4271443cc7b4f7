// Copyright (c) 2026 ClarifyX. All rights reserved.

package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/pkg/query"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	users map[string]*auth.User // keyed by ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*auth.User{}}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) List(_ context.Context, _ query.Query) ([]*auth.User, int, error) {
	out := make([]*auth.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *auth.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	if user, ok := r.users[userID]; ok {
		user.PasswordHash = newHash
		return nil
	}
	return apperr.NotFound("User")
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, userID, role string) error {
	if user, ok := r.users[userID]; ok {
		user.Role = sec.UserRole(role)
		return nil
	}
	return apperr.NotFound("User")
}

func (r *fakeUserRepo) SetActive(_ context.Context, userID string, active bool) error {
	if user, ok := r.users[userID]; ok {
		user.IsActive = active
		return nil
	}
	return apperr.NotFound("User")
}

func (r *fakeUserRepo) SetPremium(_ context.Context, userID string, premium bool) error {
	if user, ok := r.users[userID]; ok {
		user.IsPremium = premium
		return nil
	}
	return apperr.NotFound("User")
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, userID string) error {
	if user, ok := r.users[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, userID string) error {
	if user, ok := r.users[userID]; ok {
		user.IsVerified = true
		return nil
	}
	return apperr.NotFound("User")
}

type fakeSessionRepo struct {
	sessions map[string]*auth.Session // keyed by ID
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*auth.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	for _, session := range r.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			return session, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (r *fakeSessionRepo) Revoke(_ context.Context, sessionID string) error {
	if session, ok := r.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAll(_ context.Context, userID string) error {
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (r *fakeSessionRepo) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	for _, session := range r.sessions {
		if session.UserID == userID && session.ID != currentSessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error { return nil }

func (r *fakeSessionRepo) activeCount(userID string) int {
	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

type fakeTokenRepo struct {
	tokens map[string]string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]string{}}
}

func (r *fakeTokenRepo) Set(_ context.Context, token, userID string, _ time.Duration) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeTokenRepo) Get(_ context.Context, token string) (string, error) {
	if userID, ok := r.tokens[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Token")
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "signed-jwt-for-" + userID, nil
}

// # Test Harness

type authFixture struct {
	service  *auth.Service
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	resets   *fakeTokenRepo
	verifies *fakeTokenRepo
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	resets := newFakeTokenRepo()
	verifies := newFakeTokenRepo()

	service := auth.NewService(
		users, sessions, resets, verifies,
		fakeTokenProvider{},
		&notify.NoopMailer{},
		slog.New(slog.DiscardHandler),
	)

	return &authFixture{
		service:  service,
		users:    users,
		sessions: sessions,
		resets:   resets,
		verifies: verifies,
	}
}

func (f *authFixture) register(t *testing.T, username, email string) *auth.User {
	t.Helper()

	user, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	return user
}

// # Registration

func TestService_Register(t *testing.T) {
	tests := []struct {
		name     string
		input    auth.RegisterInput
		wantCode string
	}{
		{
			name: "valid_subscriber",
			input: auth.RegisterInput{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "supersecret1",
			},
		},
		{
			name: "valid_author",
			input: auth.RegisterInput{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "supersecret1",
				Role:     "author",
			},
		},
		{
			name: "staff_role_rejected",
			input: auth.RegisterInput{
				Username: "mallory",
				Email:    "mallory@example.com",
				Password: "supersecret1",
				Role:     "admin",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "short_password",
			input: auth.RegisterInput{
				Username: "carol",
				Email:    "carol@example.com",
				Password: "short",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "bad_email",
			input: auth.RegisterInput{
				Username: "dave",
				Email:    "not-an-email",
				Password: "supersecret1",
			},
			wantCode: "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newAuthFixture()

			user, err := fixture.service.Register(context.Background(), tt.input)

			if tt.wantCode != "" {
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, tt.wantCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, user.ID)
			assert.True(t, user.IsActive)
			assert.False(t, user.IsVerified)
			assert.NotEqual(t, tt.input.Password, user.PasswordHash)

			if tt.input.Role == "" {
				assert.Equal(t, sec.RoleSubscriber, user.Role)
			} else {
				assert.Equal(t, sec.UserRole(tt.input.Role), user.Role)
			}
		})
	}
}

func TestService_Register_Conflicts(t *testing.T) {
	fixture := newAuthFixture()
	fixture.register(t, "alice", "alice@example.com")

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "supersecret1",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = fixture.service.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "supersecret1",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

// # Login & Sessions

func TestService_Login(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	// Login by email
	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed-jwt-for-"+user.ID, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotNil(t, fixture.users.users[user.ID].LastLoginAt)

	// Login by username works too
	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
}

func TestService_Login_Failures(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	// Wrong password and unknown user yield the same generic message
	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", apperr.As(err).Message)

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "ghost@example.com",
		Password: "whatever-password",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", apperr.As(err).Message)

	// Suspended account is rejected with a distinct status
	require.NoError(t, fixture.users.SetActive(context.Background(), user.ID, false))

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

func TestService_RefreshSession_RotatesToken(t *testing.T) {
	fixture := newAuthFixture()
	fixture.register(t, "alice", "alice@example.com")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	rotated, err := fixture.service.RefreshSession(context.Background(), session.RefreshToken, "ua", "ip")
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	// The old refresh token must be unusable after rotation
	_, err = fixture.service.RefreshSession(context.Background(), session.RefreshToken, "ua", "ip")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestService_Logout_Idempotent(t *testing.T) {
	fixture := newAuthFixture()
	fixture.register(t, "alice", "alice@example.com")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))

	// Logging out twice, or with garbage, still succeeds
	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, fixture.service.Logout(context.Background(), "not-a-real-token"))
}

// # Password Recovery

func TestService_PasswordResetFlow(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	// Open two sessions; both should die after a reset
	for range 2 {
		_, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Login:    "alice@example.com",
			Password: "correct-horse-battery",
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, fixture.sessions.activeCount(user.ID))

	token, err := fixture.service.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, fixture.service.ResetPassword(context.Background(), token, "brand-new-password"))
	assert.Equal(t, 0, fixture.sessions.activeCount(user.ID))

	// Old password no longer works, new one does
	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "brand-new-password",
	})
	require.NoError(t, err)

	// The token is single-use
	err = fixture.service.ResetPassword(context.Background(), token, "another-password")
	require.Error(t, err)
}

func TestService_RequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	fixture := newAuthFixture()

	token, err := fixture.service.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestService_ChangePassword(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	current, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	other, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	// Wrong current password is rejected
	err = fixture.service.ChangePassword(context.Background(), user.ID, "wrong", "next-password-1", current.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	err = fixture.service.ChangePassword(context.Background(), user.ID, "correct-horse-battery", "next-password-1", current.RefreshToken)
	require.NoError(t, err)

	// The current session survives; the other one is revoked
	_, err = fixture.service.RefreshSession(context.Background(), current.RefreshToken, "ua", "ip")
	require.NoError(t, err)

	_, err = fixture.service.RefreshSession(context.Background(), other.RefreshToken, "ua", "ip")
	require.Error(t, err)
}

// # Verification & Profile

func TestService_VerifyEmail(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")
	require.False(t, user.IsVerified)

	// Registration stored exactly one pending verification token
	require.Len(t, fixture.verifies.tokens, 1)
	var token string
	for stored := range fixture.verifies.tokens {
		token = stored
	}

	require.NoError(t, fixture.service.VerifyEmail(context.Background(), token))
	assert.True(t, fixture.users.users[user.ID].IsVerified)

	// Single use
	err := fixture.service.VerifyEmail(context.Background(), token)
	require.Error(t, err)
}

func TestService_UpdateProfile_PartialFields(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	displayName := "Alice A."
	bio := "Icon designer."

	updated, err := fixture.service.UpdateProfile(context.Background(), user.ID, auth.UpdateProfileInput{
		DisplayName: &displayName,
		Bio:         &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	assert.Equal(t, "Icon designer.", updated.Bio)

	// Nil fields stay untouched
	website := "https://alice.example.com"
	updated, err = fixture.service.UpdateProfile(context.Background(), user.ID, auth.UpdateProfileInput{
		Website: &website,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	assert.Equal(t, "https://alice.example.com", updated.Website)
}

// # Administration

func TestService_SetRole(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	require.NoError(t, fixture.service.SetRole(context.Background(), user.ID, "author"))
	assert.Equal(t, sec.RoleAuthor, fixture.users.users[user.ID].Role)

	err := fixture.service.SetRole(context.Background(), user.ID, "emperor")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	err = fixture.service.SetRole(context.Background(), "missing-id", "author")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestService_SetActive_SuspensionRevokesSessions(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.Equal(t, 1, fixture.sessions.activeCount(user.ID))

	require.NoError(t, fixture.service.SetActive(context.Background(), user.ID, false))
	assert.False(t, fixture.users.users[user.ID].IsActive)
	assert.Equal(t, 0, fixture.sessions.activeCount(user.ID))

	// Reinstating does not resurrect revoked sessions
	require.NoError(t, fixture.service.SetActive(context.Background(), user.ID, true))
	assert.Equal(t, 0, fixture.sessions.activeCount(user.ID))
}

func TestService_DeleteUser(t *testing.T) {
	fixture := newAuthFixture()
	user := fixture.register(t, "alice", "alice@example.com")

	require.NoError(t, fixture.service.DeleteUser(context.Background(), user.ID))

	_, err := fixture.service.GetProfile(context.Background(), user.ID)
	require.Error(t, err)
}
