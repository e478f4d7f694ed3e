package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/shopauthsvc/domain"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount represents the database model for Account (with GORM tags)
type DBAccount struct {
	ID            uint           `gorm:"primaryKey"`
	Email         string         `gorm:"uniqueIndex;size:255"`
	PasswordHash  string         `gorm:"column:password"`
	Role          string         `gorm:"index;size:64"`
	EmailVerified bool           `gorm:"index"`
	CreatedAt     time.Time      `gorm:"index"`
	UpdatedAt     time.Time      `gorm:"index"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// DBCartItem is one line of an account-owned cart. The composite unique
// index keeps carts free of duplicate product references, which lets the
// merge upsert sum quantities in a single statement.
type DBCartItem struct {
	ID         uint   `gorm:"primaryKey"`
	AccountID  uint   `gorm:"uniqueIndex:idx_account_product;index"`
	ProductRef string `gorm:"uniqueIndex:idx_account_product;size:128"`
	Quantity   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DBCartItem) TableName() string {
	return "cart_items"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailAlreadyRegistered
		}
		return err
	}
	account.ID = dbAccount.ID
	return nil
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// MarkEmailVerified implements domain.AccountRepository. The flag flips
// exactly once; repeating the update is harmless.
func (r *AccountRepositoryImpl) MarkEmailVerified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).Update("email_verified", true).Error
}

// UpdatePassword implements domain.AccountRepository
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).Update("password", passwordHash).Error
}

// GetCart implements domain.AccountRepository
func (r *AccountRepositoryImpl) GetCart(ctx context.Context, accountID uint) (domain.Cart, error) {
	var rows []DBCartItem
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	cart := make(domain.Cart, 0, len(rows))
	for _, row := range rows {
		cart = append(cart, domain.CartItem{ProductRef: row.ProductRef, Quantity: row.Quantity})
	}
	return cart, nil
}

// AddToCart implements domain.AccountRepository. An existing line for the
// same product has qty added to it; the upsert is a single atomic statement
// so concurrent adds both land.
func (r *AccountRepositoryImpl) AddToCart(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	item := DBCartItem{AccountID: accountID, ProductRef: ref, Quantity: qty}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "product_ref"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, accountID)
}

// SetCartItem implements domain.AccountRepository. The line quantity is
// replaced outright; a non-positive quantity removes the line.
func (r *AccountRepositoryImpl) SetCartItem(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return r.RemoveFromCart(ctx, accountID, ref)
	}

	item := DBCartItem{AccountID: accountID, ProductRef: ref, Quantity: qty}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "product_ref"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("excluded.quantity"),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, accountID)
}

// RemoveFromCart implements domain.AccountRepository
func (r *AccountRepositoryImpl) RemoveFromCart(ctx context.Context, accountID uint, ref string) (domain.Cart, error) {
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND product_ref = ?", accountID, ref).
		Delete(&DBCartItem{}).Error
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, accountID)
}

// MergeCart implements domain.AccountRepository. Each incoming line is
// summed into the account cart inside one transaction.
func (r *AccountRepositoryImpl) MergeCart(ctx context.Context, accountID uint, items domain.Cart) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if it.Quantity <= 0 {
				continue
			}
			row := DBCartItem{AccountID: accountID, ProductRef: it.ProductRef, Quantity: it.Quantity}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "account_id"}, {Name: "product_ref"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity": gorm.Expr("quantity + excluded.quantity"),
				}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearCart implements domain.AccountRepository
func (r *AccountRepositoryImpl) ClearCart(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&DBCartItem{}).Error
}

// domainToDB converts domain account to database account
func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	return &DBAccount{
		ID:            account.ID,
		Email:         account.Email,
		PasswordHash:  account.PasswordHash,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
	}
}

// dbToDomain converts database account to domain account
func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	return &domain.Account{
		ID:            dbAccount.ID,
		Email:         dbAccount.Email,
		PasswordHash:  dbAccount.PasswordHash,
		Role:          dbAccount.Role,
		EmailVerified: dbAccount.EmailVerified,
		CreatedAt:     dbAccount.CreatedAt,
		UpdatedAt:     dbAccount.UpdatedAt,
	}
}
