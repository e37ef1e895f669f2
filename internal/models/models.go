package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const OrderStatusPendingVerification = "Pending Verification"

// Column names double as bson keys, so one field map serves every store driver.
const (
	FieldID              = "id"
	FieldCreatedAt       = "created_at"
	FieldRatingSum       = "rating_sum"
	FieldNumRatings      = "num_ratings"
	FieldBoughtLastMonth = "bought_last_month"
	FieldIsAvailable     = "is_available"
	FieldUsername        = "username"
	FieldPasswordHash    = "password_hash"
	FieldIsAdmin         = "is_admin"
	FieldUserID          = "user_id"
	FieldRevoked         = "revoked"
)

const (
	MinStars = 1
	MaxStars = 5
)

type Meta struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id"        json:"id"`
	CreatedAt time.Time `gorm:"not null;index"     bson:"created_at" json:"created_at"`
}

func (m *Meta) RecordID() string { return m.ID }

// Stamp assigns an id and creation time to a record that has none yet.
func (m *Meta) Stamp(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

type Variant struct {
	OptionName  string  `bson:"option_name" json:"option_name"`
	Price       float64 `bson:"price"       json:"price"`
	Image       string  `bson:"image"       json:"image"`
	Description string  `bson:"description" json:"description,omitempty"`
}

type ProductSeries struct {
	Meta            `bson:",inline"`
	Name            string    `gorm:"not null"                 bson:"name"              json:"name"`
	Brand           string    `gorm:"not null"                 bson:"brand"             json:"brand"`
	Category        string    `gorm:"not null;index"           bson:"category"          json:"category"`
	About           string    `gorm:"not null"                 bson:"about"             json:"about"`
	RatingSum       int64     `gorm:"not null"                 bson:"rating_sum"        json:"rating_sum"`
	NumRatings      int64     `gorm:"not null"                 bson:"num_ratings"       json:"num_ratings"`
	BoughtLastMonth int64     `gorm:"not null"                 bson:"bought_last_month" json:"bought_last_month"`
	IsAvailable     bool      `gorm:"not null"                 bson:"is_available"      json:"is_available"`
	Variants        []Variant `gorm:"serializer:json;type:text" bson:"variants"          json:"variants"`
}

func (ProductSeries) TableName() string { return "products" }

// Rating is derived from the accumulators and never stored.
func (p *ProductSeries) Rating() float64 {
	return AverageRating(p.RatingSum, p.NumRatings)
}

// AverageRating rounds sum/n to one decimal, half away from zero.
func AverageRating(sum, n int64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

func ValidStars(v int) bool {
	return v >= MinStars && v <= MaxStars
}

type LineItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name"       json:"name"`
	Price     float64 `bson:"price"      json:"price"`
}

type Customer struct {
	Name    string `bson:"name"    json:"name"`
	Phone   string `bson:"phone"   json:"phone"`
	Address string `bson:"address" json:"address"`
}

type Order struct {
	Meta       `bson:",inline"`
	Items      []LineItem `gorm:"serializer:json;type:text"           bson:"items"       json:"items"`
	Total      float64    `gorm:"not null"                            bson:"total"       json:"total"`
	Customer   Customer   `gorm:"embedded;embeddedPrefix:customer_"   bson:"customer"    json:"customer"`
	ReceiptRef string     `gorm:"not null"                            bson:"receipt_ref" json:"receipt_ref"`
	Status     string     `gorm:"not null"                            bson:"status"      json:"status"`
}

type User struct {
	Meta         `bson:",inline"`
	Username     string `gorm:"uniqueIndex;not null;size:64" bson:"username"      json:"username"`
	PasswordHash string `gorm:"not null"                     bson:"password_hash" json:"-"`
	IsAdmin      bool   `gorm:"not null"                     bson:"is_admin"      json:"is_admin"`
}

// RefreshToken is keyed by the token's JTI.
type RefreshToken struct {
	Meta      `bson:",inline"`
	UserID    string `gorm:"index;not null;size:36" bson:"user_id"    json:"user_id"`
	TokenHash string `gorm:"uniqueIndex;not null"   bson:"token_hash" json:"-"`
	ExpiresAt int64  `gorm:"not null"               bson:"expires_at" json:"expires_at"`
	Revoked   bool   `gorm:"not null"               bson:"revoked"    json:"revoked"`
}
