package domain

import (
	"strconv"
	"time"
)

// Account represents a durable customer identity
type Account struct {
	ID            uint
	Email         string
	PasswordHash  string `gorm:"column:password"`
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents one anonymous browsing identity and its cart.
// A session is never persisted until its cart is first mutated.
type Session struct {
	ID        string
	Cart      Cart
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenPurpose tags the four kinds of tokens the service issues
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposeRefresh       TokenPurpose = "refresh"
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Valid reports whether p is one of the four known purposes
func (p TokenPurpose) Valid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeEmailVerify, PurposePasswordReset:
		return true
	}
	return false
}

// SingleUse reports whether verifying a token of this purpose consumes it
func (p TokenPurpose) SingleUse() bool {
	return p == PurposeEmailVerify || p == PurposePasswordReset
}

// Token is the stored record behind an issued token value. Access and
// refresh tokens bind SubjectID to an account id; verification and reset
// tokens bind it to an email address. FamilyID is set for refresh tokens
// only and ties rotated tokens into one revocable lineage.
type Token struct {
	ID        string
	SubjectID string
	Purpose   TokenPurpose
	FamilyID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what login and refresh return to the client
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthResult represents a successful authentication outcome
type AuthResult struct {
	Account *Account
	Tokens  TokenPair
}

// OrderStatus is a small forward-only state machine:
// pending -> paid -> fulfilled, or pending -> failed | cancelled.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransitionTo reports whether s -> next is a legal transition.
// Every status except pending and paid is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPaid || next == OrderFailed || next == OrderCancelled
	case OrderPaid:
		return next == OrderFulfilled
	}
	return false
}

// LineItem is a priced snapshot of one cart line at checkout time.
// UnitPrice is in cents.
type LineItem struct {
	ProductRef string
	Name       string
	UnitPrice  int64
	Quantity   int
}

// Order is the immutable record produced by checkout. Only Status changes
// after creation. OwnerRef is nil for guest orders, in which case GuestEmail
// is required.
type Order struct {
	ID             string
	OwnerRef       *uint
	GuestEmail     string
	LineItems      []LineItem
	TotalAmount    int64
	Status         OrderStatus
	Shipping       ShippingInfo
	PaymentMethod  string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Product is the catalog's view of a purchasable item
type Product struct {
	Ref       string
	Name      string
	UnitPrice int64
	Available bool
}

// ShippingInfo is carried through to the order ledger verbatim
type ShippingInfo struct {
	Name    string
	Address string
	City    string
	Country string
	Zip     string
}

// CartOwner identifies whose cart an operation acts on: a guest session or
// an authenticated account. Checkout and merge resolve carts through this
// single abstraction instead of branching on authentication state.
type CartOwner interface {
	OwnerKey() string
	IsGuest() bool
}

// GuestOwner is a cart owner identified by an anonymous session id
type GuestOwner struct {
	SessionID string
}

func (o GuestOwner) OwnerKey() string { return "session:" + o.SessionID }
func (o GuestOwner) IsGuest() bool    { return true }

// AccountOwner is a cart owner identified by an authenticated account
type AccountOwner struct {
	AccountID uint
}

func (o AccountOwner) OwnerKey() string {
	return "account:" + strconv.FormatUint(uint64(o.AccountID), 10)
}
func (o AccountOwner) IsGuest() bool { return false }
