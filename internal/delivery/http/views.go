package http

import (
	"time"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

// Amounts leave the API rounded to cents. Nothing upstream rounds.

type orderItemView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type orderView struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	CustomerName    string             `json:"customer_name,omitempty"`
	LoyaltyTier     entity.LoyaltyTier `json:"loyalty_tier,omitempty"`
	Items           []orderItemView    `json:"items"`
	Subtotal        string             `json:"subtotal"`
	DiscountPercent string             `json:"discount_percent"`
	Discount        string             `json:"discount"`
	Total           string             `json:"total"`
	Notes           string             `json:"notes"`
	Status          entity.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
}

func newOrderView(o *entity.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: entity.Display(it.UnitPrice),
			Quantity:  it.Quantity,
			Subtotal:  entity.Display(it.Subtotal),
		}
	}
	return orderView{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		LoyaltyTier:     o.CustomerTier,
		Items:           items,
		Subtotal:        entity.Display(o.Subtotal),
		DiscountPercent: entity.Display(o.DiscountPercent),
		Discount:        entity.Display(o.Discount),
		Total:           entity.Display(o.Total),
		Notes:           o.Notes,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}

func newOrderViews(orders []entity.Order) []orderView {
	out := make([]orderView, len(orders))
	for i := range orders {
		out[i] = newOrderView(&orders[i])
	}
	return out
}

type productView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProductView(p *entity.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       entity.Display(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
	}
}

func newProductViews(products []entity.Product) []productView {
	out := make([]productView, len(products))
	for i := range products {
		out[i] = newProductView(&products[i])
	}
	return out
}

type statsView struct {
	Sales     string `json:"sales"`
	Orders    int    `json:"orders"`
	Customers int    `json:"customers"`
	Products  int    `json:"products"`
}

// emptyIfNil keeps list endpoints from answering null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
