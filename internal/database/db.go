package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bloomcart-system/internal/checkout"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

// Order is the local trace of a confirmed order. The POS remains the system
// of record; this table backs support lookups and the analytics exports.
// Money columns are two-decimal strings.
type Order struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	OrderID        int64      `gorm:"uniqueIndex;not null"`
	DocumentNumber string     `gorm:"uniqueIndex;not null"`
	UserID         int64      `gorm:"index"`
	CustomerName   string     `gorm:"not null"`
	Email          string     `gorm:"not null"`
	OrderType      string     `gorm:"not null"`
	PaymentMethod  string     `gorm:"not null"`
	Subtotal       string     `gorm:"type:varchar(32);not null"`
	Tax            string     `gorm:"type:varchar(32);not null"`
	DeliveryFee    string     `gorm:"type:varchar(32);not null"`
	Total          string     `gorm:"type:varchar(32);not null"`
	PointsEarned   int        `gorm:"not null"`
	PointsRedeemed int        `gorm:"not null"`
	CreatedAt      *time.Time `gorm:"autoCreateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderRecordID"`
}

type OrderItem struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	OrderRecordID int64  `gorm:"not null;index"`
	PosProductID  string `gorm:"not null"`
	Title         string `gorm:"not null"`
	Brand         string
	Category      string
	Price         string `gorm:"type:varchar(32);not null"`
	Quantity      int    `gorm:"not null"`
	BogoRules     string `gorm:"type:text"`
}

// LoyaltyLedger mirrors the earn/redeem entries posted to the order platform,
// one row per confirmed order.
type LoyaltyLedger struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	UserID         int64      `gorm:"index;not null"`
	OrderID        int64      `gorm:"index;not null"`
	PointsEarned   int        `gorm:"not null"`
	PointsRedeemed int        `gorm:"not null"`
	Total          string     `gorm:"type:varchar(32);not null"`
	CreatedAt      *time.Time `gorm:"autoCreateTime"`
}

func MigrateOrderDB(db *gorm.DB) error {
	db.AutoMigrate(&Order{})
	db.AutoMigrate(&OrderItem{})
	db.AutoMigrate(&LoyaltyLedger{})
	return nil
}

// OrderStore persists checkout order records. It satisfies the checkout
// OrderRecorder interface.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) SaveOrder(ctx context.Context, rec checkout.OrderRecord) error {
	order := Order{
		OrderID:        rec.OrderID,
		DocumentNumber: rec.DocumentNumber,
		UserID:         rec.UserID,
		CustomerName:   rec.CustomerName,
		Email:          rec.Email,
		OrderType:      rec.OrderType,
		PaymentMethod:  rec.PaymentMethod,
		Subtotal:       rec.Subtotal,
		Tax:            rec.Tax,
		DeliveryFee:    rec.DeliveryFee,
		Total:          rec.Total,
		PointsEarned:   rec.PointsEarned,
		PointsRedeemed: rec.PointsRedeemed,
	}

	for _, it := range rec.Items {
		rules := ""
		if len(it.BogoRules) > 0 {
			if raw, err := json.Marshal(it.BogoRules); err == nil {
				rules = string(raw)
			}
		}
		order.Items = append(order.Items, OrderItem{
			PosProductID: it.PosProductID,
			Title:        it.Title,
			Brand:        it.Brand,
			Category:     it.Category,
			Price:        it.Price,
			Quantity:     it.Quantity,
			BogoRules:    rules,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		ledger := LoyaltyLedger{
			UserID:         rec.UserID,
			OrderID:        rec.OrderID,
			PointsEarned:   rec.PointsEarned,
			PointsRedeemed: rec.PointsRedeemed,
			Total:          rec.Total,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return fmt.Errorf("failed to save loyalty ledger: %w", err)
		}
		return nil
	})
}
