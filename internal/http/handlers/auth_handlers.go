package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

const refreshCookieName = "refresh_token"

// AuthHandlers handles identity lifecycle HTTP requests
type AuthHandlers struct {
	identitySvc      domain.IdentityService
	accounts         domain.AccountRepository
	refreshCookieAge int
	secureCookies    bool
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(identitySvc domain.IdentityService, accounts domain.AccountRepository, refreshCookieAge int, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		identitySvc:      identitySvc,
		accounts:         accounts,
		refreshCookieAge: refreshCookieAge,
		secureCookies:    secureCookies,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest carries the single-use verification token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// EmailRequest is used by resend-verification and password-reset requests
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RefreshRequest allows clients without cookie support to pass the token
// in the body; the cookie takes precedence.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetConfirmRequest carries the reset token and the replacement password
type ResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Register handles account registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.identitySvc.Register(c.Request.Context(), req.Email, req.Password, c.GetString("session_id"))
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"message":    "Account registered. Please verify your email address.",
			"account_id": account.ID,
		},
	})
}

// Login handles credential authentication
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.identitySvc.Login(c.Request.Context(), req.Email, req.Password, c.GetString("session_id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case errors.Is(err, domain.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": result.Tokens.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   result.Tokens.ExpiresIn,
			"account": gin.H{
				"id":    result.Account.ID,
				"email": result.Account.Email,
				"role":  result.Account.Role,
			},
		},
	})
}

// VerifyEmail consumes a verification token
func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identitySvc.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Verification token expired"})
		case errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenMalformed), errors.Is(err, domain.ErrTokenPurposeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification token"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Email verified"}})
}

// ResendVerification issues a fresh verification token. The response does
// not reveal whether the email is registered.
func (h *AuthHandlers) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identitySvc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "If the address is registered, a verification email has been sent."}})
}

// Refresh rotates the refresh token and mints a new access token
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshValue := h.refreshToken(c)
	if refreshValue == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token required"})
		return
	}

	pair, err := h.identitySvc.Refresh(c.Request.Context(), refreshValue)
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		case errors.Is(err, domain.ErrTokenReuseDetected), errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenMalformed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token refresh failed"})
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": pair.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   pair.ExpiresIn,
		},
	})
}

// RequestPasswordReset starts the reset flow. Always succeeds from the
// client's point of view.
func (h *AuthHandlers) RequestPasswordReset(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identitySvc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reset request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "If the address is registered, a reset email has been sent."}})
}

// ConfirmPasswordReset consumes the reset token and replaces the password
func (h *AuthHandlers) ConfirmPasswordReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identitySvc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Reset token expired"})
		case errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenMalformed), errors.Is(err, domain.ErrTokenPurposeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset token"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Password reset failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password updated. Please log in again."}})
}

// Logout revokes the family of the presented refresh token
func (h *AuthHandlers) Logout(c *gin.Context) {
	refreshValue := h.refreshToken(c)
	h.clearRefreshCookie(c)
	if refreshValue == "" {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out"}})
		return
	}

	if err := h.identitySvc.Logout(c.Request.Context(), refreshValue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out"}})
}

// LogoutAll revokes every refresh family belonging to the caller
func (h *AuthHandlers) LogoutAll(c *gin.Context) {
	accountID := c.GetUint("account_id")
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.identitySvc.LogoutAll(c.Request.Context(), accountID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "All sessions logged out"}})
}

// Me returns the authenticated account's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	accountID := c.GetUint("account_id")
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	account, err := h.accounts.FindByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":             account.ID,
			"email":          account.Email,
			"role":           account.Role,
			"email_verified": account.EmailVerified,
			"created_at":     account.CreatedAt,
		},
	})
}

func (h *AuthHandlers) refreshToken(c *gin.Context) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandlers) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, value, h.refreshCookieAge, "/auth", "", h.secureCookies, true)
}

func (h *AuthHandlers) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/auth", "", h.secureCookies, true)
}
