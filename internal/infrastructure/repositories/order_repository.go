package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/shopauthsvc/domain"
)

// OrderRepositoryImpl implements domain.OrderRepository using GORM. Orders
// are append-only snapshots; the only mutation ever applied is a legal
// status transition.
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// DBOrder represents the database model for Order
type DBOrder struct {
	ID             string  `gorm:"primaryKey;size:36"`
	OwnerRef       *uint   `gorm:"index"`
	GuestEmail     string  `gorm:"size:255"`
	TotalAmount    int64
	Status         string  `gorm:"index;size:16"`
	PaymentMethod  string  `gorm:"size:64"`
	ShipName       string  `gorm:"size:255"`
	ShipAddress    string  `gorm:"size:255"`
	ShipCity       string  `gorm:"size:128"`
	ShipCountry    string  `gorm:"size:64"`
	ShipZip        string  `gorm:"size:32"`
	IdempotencyKey *string `gorm:"uniqueIndex;size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (DBOrder) TableName() string {
	return "orders"
}

// DBOrderItem is one priced line of an order snapshot
type DBOrderItem struct {
	ID         uint   `gorm:"primaryKey"`
	OrderID    string `gorm:"index;size:36"`
	ProductRef string `gorm:"size:128"`
	Name       string `gorm:"size:255"`
	UnitPrice  int64
	Quantity   int
}

func (DBOrderItem) TableName() string {
	return "order_items"
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

// Create implements domain.OrderRepository
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	dbOrder := orderToDB(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbOrder).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateIdempotencyKey
			}
			return err
		}
		for _, li := range order.LineItems {
			row := DBOrderItem{
				OrderID:    order.ID,
				ProductRef: li.ProductRef,
				Name:       li.Name,
				UnitPrice:  li.UnitPrice,
				Quantity:   li.Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID implements domain.OrderRepository
func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var dbOrder DBOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbOrder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return r.loadOrder(ctx, &dbOrder)
}

// FindByIdempotencyKey implements domain.OrderRepository
func (r *OrderRepositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	var dbOrder DBOrder
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&dbOrder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return r.loadOrder(ctx, &dbOrder)
}

// UpdateStatus implements domain.OrderRepository. The read and the write
// share a transaction so a stale status can never be transitioned from.
func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbOrder DBOrder
		if err := tx.Where("id = ?", id).First(&dbOrder).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}

		current := domain.OrderStatus(dbOrder.Status)
		if !current.CanTransitionTo(next) {
			return domain.ErrInvalidOrderTransition
		}

		return tx.Model(&DBOrder{}).Where("id = ?", id).Update("status", string(next)).Error
	})
}

func (r *OrderRepositoryImpl) loadOrder(ctx context.Context, dbOrder *DBOrder) (*domain.Order, error) {
	var rows []DBOrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", dbOrder.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.LineItem{
			ProductRef: row.ProductRef,
			Name:       row.Name,
			UnitPrice:  row.UnitPrice,
			Quantity:   row.Quantity,
		})
	}

	order := &domain.Order{
		ID:            dbOrder.ID,
		OwnerRef:      dbOrder.OwnerRef,
		GuestEmail:    dbOrder.GuestEmail,
		LineItems:     items,
		TotalAmount:   dbOrder.TotalAmount,
		Status:        domain.OrderStatus(dbOrder.Status),
		PaymentMethod: dbOrder.PaymentMethod,
		Shipping: domain.ShippingInfo{
			Name:    dbOrder.ShipName,
			Address: dbOrder.ShipAddress,
			City:    dbOrder.ShipCity,
			Country: dbOrder.ShipCountry,
			Zip:     dbOrder.ShipZip,
		},
		CreatedAt: dbOrder.CreatedAt,
	}
	if dbOrder.IdempotencyKey != nil {
		order.IdempotencyKey = *dbOrder.IdempotencyKey
	}
	return order, nil
}

func orderToDB(order *domain.Order) *DBOrder {
	dbOrder := &DBOrder{
		ID:            order.ID,
		OwnerRef:      order.OwnerRef,
		GuestEmail:    order.GuestEmail,
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		ShipName:      order.Shipping.Name,
		ShipAddress:   order.Shipping.Address,
		ShipCity:      order.Shipping.City,
		ShipCountry:   order.Shipping.Country,
		ShipZip:       order.Shipping.Zip,
	}
	if order.IdempotencyKey != "" {
		key := order.IdempotencyKey
		dbOrder.IdempotencyKey = &key
	}
	return dbOrder
}
