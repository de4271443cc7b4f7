// Copyright (c) 2026 ClarifyX. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements user authentication and account lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	resetTokens       TokenRepository
	verifyTokens      TokenRepository
	tokenProvider     TokenProvider
	mailer            notify.Mailer
	logger            *slog.Logger
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	resetTokens TokenRepository,
	verifyTokens TokenRepository,
	tokenProv TokenProvider,
	mailer notify.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		resetTokens:       resetTokens,
		verifyTokens:      verifyTokens,
		tokenProvider:     tokenProv,
		mailer:            mailer,
		logger:            logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	// Role may be "subscriber" (default) or "author". Staff roles are
	// never self-assignable.
	Role string `json:"role"`
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member, handling password hashing and
initial verification token state.

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists), validation, or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	if input.Role == "" {
		input.Role = string(sec.RoleSubscriber)
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).MinLen(FieldUsername, input.Username, 3).MaxLen(FieldUsername, input.Username, 32)
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password).MinLen(FieldPassword, input.Password, 8)
	validator.MaxLen(FieldDisplayName, input.DisplayName, 100)
	validator.OneOf(FieldRole, input.Role, string(sec.RoleSubscriber), string(sec.RoleAuthor))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.UserRole(input.Role),
		IsVerified:   false,
		IsActive:     true,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Generate and store a verification token in Redis as an async-ready side effect
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err == nil {
		_ = service.verifyTokens.Set(context, token, user.ID, VerificationTokenTTL)
	}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login     string // Can be Username or Email
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
and initializes a new session with rotated security tokens.

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	// Flexible login: look up by Email or Username
	user, err := service.userRepository.FindByEmail(context, input.Login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, input.Login)
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !user.IsActive {
		return nil, apperr.Forbidden("Account is suspended")
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Create and persist the tracking session
	expiresAt := time.Now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
		ExpiresAt: expiresAt,
		IsRevoked: false,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	_ = service.userRepository.TouchLastLogin(context, user.ID)

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

// Logout permanently revokes the user's active session. Revoking an
// unknown token is a successful no-op (idempotent operation).
func (service *Service) Logout(context context.Context, refreshToken string) error {
	tokenHash := sec.HashToken(refreshToken)

	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the existing refresh token, revokes it to prevent reuse
(replay attack mitigation), and issues a fresh pair of rotated tokens.
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	tokenHash := sec.HashToken(refreshToken)
	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Rotation: Revoke the old session to prevent replay attacks
	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	newRefreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_secure_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	newSession := &Session{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(newRefreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
		IsRevoked: false,
	}

	if err := service.sessionRepository.Create(context, newSession); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          newRefreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

// # Password Recovery

// RequestPasswordReset initiates the forgot-password flow by saving a
// secure token to Redis. An unknown email returns success without a
// token to prevent user enumeration.
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return "", nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.resetTokens.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	body := "Hello " + user.Username + ",\n\nUse this code to reset your password: " + token +
		"\n\nIt expires in " + ResetTokenTTL.String() + ". If you did not request a reset, ignore this mail."
	if err := service.mailer.Send(context, user.Email, "Reset your password", body); err != nil {
		service.logger.Warn("reset_mail_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return token, nil
}

// ResetPassword completes the forgot-password flow: verifies the token,
// hashes the new password, updates the DB, and revokes all active
// sessions for security cleanup.
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	if err := (&validate.Validator{}).MinLen(FieldNewPassword, newPassword, 8).Err(); err != nil {
		return err
	}

	userID, err := service.resetTokens.Get(context, token)
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: Revoke EVERY active session for this user
	_ = service.sessionRepository.RevokeAll(context, userID)
	_ = service.resetTokens.Delete(context, token)

	return nil
}

// ChangePassword verifies the current password, stores the new hash,
// and revokes all other refresh sessions so stolen devices lose access.
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword, currentRefreshToken string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	if err := (&validate.Validator{}).MinLen(FieldNewPassword, newPassword, 8).Err(); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	tokenHash := sec.HashToken(currentRefreshToken)
	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if err == nil {
		_ = service.sessionRepository.RevokeOthers(context, userID, session.ID)
	}

	return nil
}

// VerifyEmail confirms a user's email address using a secure token.
func (service *Service) VerifyEmail(context context.Context, token string) error {
	userID, err := service.verifyTokens.Get(context, token)
	if err != nil {
		return err
	}

	if err := service.userRepository.MarkVerified(context, userID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	_ = service.verifyTokens.Delete(context, token)
	return nil
}

// # Profile

// UpdateProfileInput holds the mutable profile fields.
type UpdateProfileInput struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
	Website     *string `json:"website"`
}

// GetProfile returns the account for the given user ID.
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// UpdateProfile applies a partial profile update. Nil fields are untouched.
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Website != nil {
		user.Website = *input.Website
	}

	validator := &validate.Validator{}
	validator.MaxLen(FieldDisplayName, user.DisplayName, 100)
	validator.MaxLen("bio", user.Bio, 1000)
	if user.Website != "" {
		validator.MaxLen(FieldWebsite, user.Website, 300)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, err
	}
	return user, nil
}

// # Administration

// ListUsers returns a filtered page of accounts for the admin console.
func (service *Service) ListUsers(context context.Context, q query.Query) ([]*User, int, error) {
	return service.userRepository.List(context, q)
}

// SetRole changes an account's role. Only super admins may grant or
// revoke staff roles; the handler enforces the caller's privilege.
func (service *Service) SetRole(context context.Context, userID, role string) error {
	validator := &validate.Validator{}
	validator.OneOf(FieldRole, role,
		string(sec.RoleSubscriber), string(sec.RoleAuthor),
		string(sec.RoleAdmin), string(sec.RoleSuperAdmin),
	)
	if err := validator.Err(); err != nil {
		return err
	}

	if _, err := service.userRepository.FindByID(context, userID); err != nil {
		return err
	}

	if err := service.userRepository.UpdateRole(context, userID, role); err != nil {
		return err
	}

	service.logger.Info("user_role_changed",
		slog.String("user_id", userID),
		slog.String("role", role),
	)
	return nil
}

// SetActive suspends or reinstates an account. Suspension also revokes
// all active sessions so the user is logged out everywhere. The user is
// told by mail, best effort.
func (service *Service) SetActive(context context.Context, userID string, active bool) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if err := service.userRepository.SetActive(context, userID, active); err != nil {
		return err
	}

	if !active {
		_ = service.sessionRepository.RevokeAll(context, userID)
	}

	service.logger.Warn("user_active_changed",
		slog.String("user_id", userID),
		slog.Bool("active", active),
	)

	subject := "Your account has been reinstated"
	body := "Hello " + user.Username + ",\n\nYour account is active again. Welcome back."
	if !active {
		subject = "Your account has been suspended"
		body = "Hello " + user.Username + ",\n\nYour account has been suspended. Contact support if you believe this is a mistake."
	}
	if err := service.mailer.Send(context, user.Email, subject, body); err != nil {
		service.logger.Warn("status_mail_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// DeleteUser soft-deletes an account and revokes its sessions.
func (service *Service) DeleteUser(context context.Context, userID string) error {
	if err := service.userRepository.SoftDelete(context, userID); err != nil {
		return err
	}

	_ = service.sessionRepository.RevokeAll(context, userID)

	service.logger.Warn("user_deleted", slog.String("user_id", userID))
	return nil
}
