// Copyright (c) 2026 ClarifyX. All rights reserved.

/*
Package auth provides identity and account management for the marketplace.

It covers the full authentication lifecycle (registration, login, refresh
token rotation, password recovery, email verification), profile management,
and the admin user console.

# Architecture

The HTTP handler is a thin mediation layer between the web and the domain
[Service]:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT orchestration and refresh token cookie injection.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/constants"
	"github.com/clarifyx/clarifyx/internal/platform/database/schema"
	"github.com/clarifyx/clarifyx/internal/platform/middleware"
	requestutil "github.com/clarifyx/clarifyx/internal/platform/request"
	"github.com/clarifyx/clarifyx/internal/platform/respond"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
)

// # Definitions & Constructors

// Handler implements authentication and account management HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
		r.Get("/me", handler.getProfile)
		r.Patch("/me", handler.updateProfile)
	})

	return router
}

// UserRoutes returns the admin user-management console routes. These are
// mounted separately from the auth lifecycle endpoints.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/", handler.listUsers)
		r.Patch("/{id}/active", handler.setActive)

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleSuperAdmin))
			sr.Patch("/{id}/role", handler.setRole)
			sr.Delete("/{id}", handler.deleteUser)
		})
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, and persists
a new user profile to the database.

Request:
  - Body: registerRequest (Username, Email, Password, DisplayName, Role)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Role:        input.Role,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Account created successfully", user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, generates JWT access tokens, and injects
a secure refresh token cookie into the response.

Request:
  - Body: loginRequest (Login, Password)

Response:
  - 200: LoginSession: Access token and User profile
  - 401: ErrUnauthorized: Invalid credentials
  - 403: ErrForbidden: Account suspended
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Login:     input.Login,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: getClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, "Login successful", map[string]any{
		"accessToken": session.AccessToken,
		"tokenType":   "Bearer",
		"expiresIn":   AccessTokenTTL / time.Second,
		"user":        session.User,
	})
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Invalidates the refresh token (if present) and clears the
security cookies from the client.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		_ = handler.authService.Logout(request.Context(), cookie.Value)
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Description: Rotates the session by validating the refresh token cookie
and issuing a fresh access token and an updated refresh token.

Response:
  - 200: RefreshResponse: New access token credentials
  - 401: ErrUnauthorized: Missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshSession(
		request.Context(),
		cookie.Value,
		request.UserAgent(),
		getClientIP(request),
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, "Token refreshed", map[string]any{
		"accessToken": session.AccessToken,
		"tokenType":   "Bearer",
		"expiresIn":   AccessTokenTTL / time.Second,
	})
}

/*
VerifyEmail confirms a user's email ownership.

POST /api/v1/auth/verify-email

Response:
  - 200: Success: Email verified
  - 404: ErrNotFound: Unknown or expired token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Email verified successfully", nil)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Sends a password reset link to the provided email if the
account exists. The response is identical either way to prevent
account enumeration.

Response:
  - 200: Success: Generic security message
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "If this email is registered, a reset link has been sent.", nil)
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Response:
  - 200: Success: Password updated
  - 404: ErrNotFound: Unknown or expired token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Password updated successfully", nil)
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Description: Verifies the current password and security context before
applying a new password. Other sessions are revoked.

Response:
  - 200: Success: Password changed
  - 401: ErrUnauthorized: Session invalid or current password incorrect
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing active session cookie"))
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		claims.UserID,
		input.CurrentPassword,
		input.NewPassword,
		cookie.Value,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Password changed successfully", nil)
}

// # Profile Endpoints

// GetProfile returns the authenticated user's account.
//
// GET /api/v1/auth/me
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Profile retrieved", user)
}

// UpdateProfile applies a partial update to the authenticated user's profile.
//
// PATCH /api/v1/auth/me
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.authService.UpdateProfile(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Profile updated", user)
}

// # Admin Console Endpoints

/*
ListUsers returns a filtered, paginated page of accounts.

GET /api/v1/users

Description: Supports free-text search over username, email, and display
name, plus exact filters on role, premium, and active status.

Query parameters:
  - search: free text over identity columns
  - role: exact role filter
  - isPremium / isActive / isVerified: boolean filters
  - sort: createdAt, username, email, role, totalEarnings (prefix "-" for desc)
  - page, limit: pagination controls
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	table := schema.UserAccount

	builder := query.New(request.URL.Query()).
		Search(table.Username, table.Email, table.DisplayName).
		FilterExact(FieldRole, table.Role).
		FilterBoolean("isPremium", table.IsPremium).
		FilterBoolean("isActive", table.IsActive).
		FilterBoolean("isVerified", table.IsVerified).
		Sort(map[string]string{
			"createdAt":     table.CreatedAt,
			"username":      table.Username,
			"email":         table.Email,
			"role":          table.Role,
			"totalEarnings": table.TotalEarnings,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	users, total, err := handler.authService.ListUsers(request.Context(), builder.Build())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Users retrieved", users, builder.BuildMeta(total))
}

/*
SetRole changes an account's role. Super admin only.

PATCH /api/v1/users/{id}/role
*/
func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	var input setRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.authService.SetRole(request.Context(), userID, input.Role); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User role updated", nil)
}

/*
SetActive suspends or reinstates an account. Admin only.

PATCH /api/v1/users/{id}/active
*/
func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	var input setActiveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.authService.SetActive(request.Context(), userID, input.IsActive); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User status updated", nil)
}

/*
DeleteUser soft-deletes an account. Super admin only.

DELETE /api/v1/users/{id}
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.ID(request, "id")

	if err := handler.authService.DeleteUser(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Helpers

func setRefreshCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// getClientIP tries to extract the real IP address of a user over proxy environments.
func getClientIP(request *http.Request) string {
	ip := request.Header.Get("X-Real-IP")
	if ip == "" {
		ip = request.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = request.RemoteAddr
	}
	return ip
}
