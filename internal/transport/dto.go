package transport

import (
	"time"

	"github.com/Skotchmaster/easystore/internal/models"
)

type CreateProductRequest struct {
	Name            string           `json:"name"`
	Brand           string           `json:"brand"`
	Category        string           `json:"category"`
	About           string           `json:"about"`
	Rating          float64          `json:"rating"`
	NumRatings      int64            `json:"num_ratings"`
	BoughtLastMonth int64            `json:"bought_last_month"`
	Variants        []models.Variant `json:"variants"`
}

type RateRequest struct {
	StarValue int `json:"star_value"`
}

type RatingResponse struct {
	Rating     float64 `json:"rating"`
	NumRatings int64   `json:"num_ratings"`
}

// ProductResponse carries the derived rating next to the stored accumulators.
type ProductResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Brand           string           `json:"brand"`
	Category        string           `json:"category"`
	About           string           `json:"about"`
	Rating          float64          `json:"rating"`
	RatingSum       int64            `json:"rating_sum"`
	NumRatings      int64            `json:"num_ratings"`
	BoughtLastMonth int64            `json:"bought_last_month"`
	IsAvailable     bool             `json:"is_available"`
	Variants        []models.Variant `json:"variants"`
	CreatedAt       time.Time        `json:"created_at"`
}

func NewProductResponse(p *models.ProductSeries) ProductResponse {
	variants := p.Variants
	if variants == nil {
		variants = []models.Variant{}
	}
	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		Category:        p.Category,
		About:           p.About,
		Rating:          p.Rating(),
		RatingSum:       p.RatingSum,
		NumRatings:      p.NumRatings,
		BoughtLastMonth: p.BoughtLastMonth,
		IsAvailable:     p.IsAvailable,
		Variants:        variants,
		CreatedAt:       p.CreatedAt,
	}
}

func NewProductList(ps []models.ProductSeries) []ProductResponse {
	out := make([]ProductResponse, 0, len(ps))
	for i := range ps {
		out = append(out, NewProductResponse(&ps[i]))
	}
	return out
}

// CartLine is one bag entry as the storefront sends it.
type CartLine struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type CheckoutRequest struct {
	Items      []CartLine      `json:"items"`
	Total      float64         `json:"total"`
	Customer   models.Customer `json:"customer"`
	ReceiptRef string          `json:"receipt_ref"`
}

type CheckoutResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
