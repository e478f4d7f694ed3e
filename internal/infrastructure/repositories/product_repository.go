package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/shopauthsvc/domain"
)

// ProductRepositoryImpl implements domain.ProductCatalog using GORM. A
// missing or failed lookup reads as ErrProductUnavailable; checkout fails
// that line without corrupting the rest of the snapshot.
type ProductRepositoryImpl struct {
	db *gorm.DB
}

// DBProduct represents the database model for a catalog product
type DBProduct struct {
	ID        uint   `gorm:"primaryKey"`
	Ref       string `gorm:"uniqueIndex;size:128"`
	Name      string `gorm:"size:255"`
	UnitPrice int64
	Available bool `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DBProduct) TableName() string {
	return "products"
}

// NewProductRepository creates a new product catalog repository
func NewProductRepository(db *gorm.DB) domain.ProductCatalog {
	return &ProductRepositoryImpl{db: db}
}

// Lookup implements domain.ProductCatalog
func (r *ProductRepositoryImpl) Lookup(ctx context.Context, ref string) (*domain.Product, error) {
	var dbProduct DBProduct
	err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&dbProduct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductUnavailable
		}
		return nil, err
	}

	return &domain.Product{
		Ref:       dbProduct.Ref,
		Name:      dbProduct.Name,
		UnitPrice: dbProduct.UnitPrice,
		Available: dbProduct.Available,
	}, nil
}
