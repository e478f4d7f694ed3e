package domain

import (
	"context"
	"time"
)

// AccountRepository defines account and account-cart data access
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	MarkEmailVerified(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error

	GetCart(ctx context.Context, accountID uint) (Cart, error)
	AddToCart(ctx context.Context, accountID uint, ref string, qty int) (Cart, error)
	SetCartItem(ctx context.Context, accountID uint, ref string, qty int) (Cart, error)
	RemoveFromCart(ctx context.Context, accountID uint, ref string) (Cart, error)
	// MergeCart folds items into the account cart with quantities summed,
	// atomically per line.
	MergeCart(ctx context.Context, accountID uint, items Cart) error
	ClearCart(ctx context.Context, accountID uint) error
}

// SessionStore holds anonymous guest sessions with a sliding TTL. Records
// are created lazily: NewID allocates an identifier without persisting
// anything, and only Mutate writes a record.
type SessionStore interface {
	NewID() (string, error)
	// Get returns ErrSessionNotFound for unknown or expired sessions; that
	// is an expected outcome, not a fault.
	Get(ctx context.Context, id string) (*Session, error)
	// Mutate applies op to the session's cart under per-session mutual
	// exclusion, persisting on first mutation and sliding the TTL forward
	// on every write. A cart mutated down to empty is removed.
	Mutate(ctx context.Context, id string, op func(Cart) Cart) (*Session, error)
	// Take atomically removes the session and returns its cart, so that at
	// most one caller ever obtains it. Used by the merge engine.
	Take(ctx context.Context, id string) (Cart, error)
	// Restore writes a cart back under id. Merge failure recovery only.
	Restore(ctx context.Context, id string, cart Cart) error
	// Destroy is idempotent; destroying an unknown session is not an error.
	Destroy(ctx context.Context, id string) error
}

// TokenService issues, verifies and revokes the four token purposes. Every
// token is a stateful record: stateless signing alone cannot support
// single-use consumption or family revocation.
type TokenService interface {
	// Issue mints a token value bound to subjectID. Issuing a refresh token
	// opens a new family.
	Issue(ctx context.Context, subjectID string, purpose TokenPurpose, ttl time.Duration) (string, *Token, error)
	// Verify resolves value to a live token of the expected purpose. For
	// single-use purposes the token is consumed atomically in the same call.
	Verify(ctx context.Context, value string, expected TokenPurpose) (*Token, error)
	// Rotate redeems a live refresh token and mints its replacement in the
	// same family as one atomic unit. Presenting an already-rotated token
	// revokes the whole family and returns ErrTokenReuseDetected.
	Rotate(ctx context.Context, refreshValue string) (string, *Token, error)
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeAllFamilies(ctx context.Context, subjectID string) error
}

// PasswordService defines password hashing operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// Mailer delivers account emails best-effort; a delivery failure never
// invalidates the token the mail carries.
type Mailer interface {
	SendVerificationEmail(email, tokenValue string) error
	SendPasswordResetEmail(email, tokenValue string) error
}

// ProductCatalog resolves a product reference to current price and
// availability for checkout pricing.
type ProductCatalog interface {
	Lookup(ctx context.Context, ref string) (*Product, error)
}

// OrderRepository is the append-only order ledger
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	// UpdateStatus enforces the forward-only status machine and returns
	// ErrInvalidOrderTransition for anything else.
	UpdateStatus(ctx context.Context, id string, next OrderStatus) error
}

// CartService exposes cart reads and mutations against a CartOwner, guest
// or authenticated, through one interface.
type CartService interface {
	GetCart(ctx context.Context, owner CartOwner) (Cart, error)
	AddItem(ctx context.Context, owner CartOwner, ref string, qty int) (Cart, error)
	UpdateItem(ctx context.Context, owner CartOwner, ref string, qty int) (Cart, error)
	RemoveItem(ctx context.Context, owner CartOwner, ref string) (Cart, error)
}

// CartMerger reconciles a guest session's cart into an account cart and
// disposes of the session as one logical step.
type CartMerger interface {
	MergeSessionIntoAccount(ctx context.Context, sessionID string, accountID uint) error
}

// IdentityService orchestrates the identity lifecycle state machine
type IdentityService interface {
	Register(ctx context.Context, email, password, guestSessionID string) (*Account, error)
	VerifyEmail(ctx context.Context, tokenValue string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password, guestSessionID string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshValue string) (*TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenValue, newPassword string) error
	Logout(ctx context.Context, refreshValue string) error
	LogoutAll(ctx context.Context, accountID uint) error
}

// CheckoutService converts a cart into an immutable order
type CheckoutService interface {
	Checkout(ctx context.Context, owner CartOwner, shipping ShippingInfo, paymentMethod, guestEmail, idempotencyKey string) (*Order, error)
}

// PolicyService defines authorization policy operations for the
// admin/support surface
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer is the subset of the Casbin enforcer the service needs
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
