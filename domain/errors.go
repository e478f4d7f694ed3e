package domain

import "errors"

// Expected absence - normal branches, never logged as errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenNotFound   = errors.New("token not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// Client input errors - surfaced verbatim, never retried
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrGuestEmailRequired     = errors.New("guest email required for anonymous checkout")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
)

// Token errors
var (
	ErrInvalidPurpose       = errors.New("unknown token purpose")
	ErrInvalidTTL           = errors.New("token ttl must be positive")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("malformed token")
	ErrTokenPurposeMismatch = errors.New("token purpose mismatch")
)

// Security events - surfaced as authentication failures, audit-logged internally
var (
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
)

// Checkout and order errors
var (
	ErrProductUnavailable      = errors.New("product unavailable")
	ErrInvalidOrderTransition  = errors.New("invalid order status transition")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// Infrastructure failures - the only class eligible for caller-directed retry
var (
	ErrStoreUnavailable = errors.New("store unavailable")
)
