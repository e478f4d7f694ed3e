package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

// AuthMW wraps the token service and account repository for middleware
type AuthMW struct {
	tokenSvc domain.TokenService
	accounts domain.AccountRepository
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, accounts domain.AccountRepository) *AuthMW {
	return &AuthMW{
		tokenSvc: tokenSvc,
		accounts: accounts,
	}
}

// RequireAuth rejects requests without a live access token. On success the
// account id and role are placed in the context.
func (mw *AuthMW) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := mw.authenticate(c)
		if !ok {
			c.Abort()
			return
		}

		account, err := mw.accounts.FindByID(c.Request.Context(), accountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			c.Abort()
			return
		}

		c.Set("account_id", accountID)
		c.Set("account_role", account.Role)
		c.Next()
	}
}

// OptionalAuth resolves the access token when one is presented but lets
// anonymous requests pass. Cart and checkout routes serve both audiences.
func (mw *AuthMW) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		accountID, ok := mw.authenticate(c)
		if !ok {
			c.Abort()
			return
		}

		c.Set("account_id", accountID)
		c.Next()
	}
}

// authenticate extracts and verifies the bearer token; it writes the error
// response itself and reports success via the bool.
func (mw *AuthMW) authenticate(c *gin.Context) (uint, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return 0, false
	}

	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return 0, false
	}

	tok, err := mw.tokenSvc.Verify(c.Request.Context(), tokenParts[1], domain.PurposeAccess)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
		case errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenMalformed), errors.Is(err, domain.ErrTokenPurposeMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token validation failed"})
		}
		return 0, false
	}

	accountID, err := strconv.ParseUint(tok.SubjectID, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return 0, false
	}

	return uint(accountID), true
}
