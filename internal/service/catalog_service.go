package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/messaging"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

func (in *ProductInput) validate() error {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if in.Price.IsNegative() {
		fields = append(fields, "price")
	}
	if in.Stock < 0 {
		fields = append(fields, "stock")
	}
	if len(fields) > 0 {
		return &entity.ValidationError{Fields: fields, Msg: "invalid product"}
	}
	return nil
}

// CatalogService manages the product catalog.
type CatalogService struct {
	products  repository.ProductRepository
	publisher messaging.Publisher
	activity  ActivityRecorder
	now       func() time.Time
}

func NewCatalogService(products repository.ProductRepository, publisher messaging.Publisher, activity ActivityRecorder) *CatalogService {
	return &CatalogService{products: products, publisher: publisher, activity: activity, now: time.Now}
}

func (s *CatalogService) List(ctx context.Context) ([]entity.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*entity.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, caller *entity.Caller, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &entity.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Active:      true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "product.create", Module: "products", EntityID: p.ID, Detail: p.Name})
	publishStock(ctx, s.publisher, []entity.ProductStockUpdated{{ProductID: p.ID, Name: p.Name, NewStock: p.Stock, UpdatedAt: p.CreatedAt}})
	return p, nil
}

// Update replaces the editable fields. A stock change is published.
func (s *CatalogService) Update(ctx context.Context, caller *entity.Caller, id string, in ProductInput) (*entity.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStock := p.Stock
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = in.Category
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "product.update", Module: "products", EntityID: p.ID, Detail: p.Name})
	if p.Stock != previousStock {
		publishStock(ctx, s.publisher, []entity.ProductStockUpdated{{ProductID: p.ID, Name: p.Name, NewStock: p.Stock, UpdatedAt: s.now().UTC()}})
	}
	return p, nil
}

// Delete hides the product from the catalog. Past orders keep their snapshots.
func (s *CatalogService) Delete(ctx context.Context, caller *entity.Caller, id string) error {
	if err := s.products.Deactivate(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "product.delete", Module: "products", EntityID: id})
	return nil
}

// SeedDemo fills an empty catalog with the bakery's starter products.
func (s *CatalogService) SeedDemo(ctx context.Context) error {
	now := s.now().UTC()
	demo := []struct {
		name, description, price, category string
		stock                              int
	}{
		{"Croissant", "Butter croissant", "2.50", "Pastries", 40},
		{"Pain au chocolat", "Chocolate-filled viennoiserie", "2.80", "Pastries", 30},
		{"Baguette", "Traditional French baguette", "1.90", "Bread", 50},
		{"Sourdough loaf", "Naturally leavened country loaf", "6.50", "Bread", 15},
		{"Cinnamon roll", "Glazed cinnamon swirl", "3.20", "Pastries", 20},
		{"Carrot cake slice", "With cream cheese frosting", "4.50", "Cakes", 12},
		{"Chocolate cake", "Whole cake, serves eight", "28.00", "Cakes", 4},
		{"Empanada", "Beef and olive empanada", "3.00", "Savory", 25},
	}

	products := make([]entity.Product, len(demo))
	for i, d := range demo {
		products[i] = entity.Product{
			ID:          uuid.New().String(),
			Name:        d.name,
			Description: d.description,
			Price:       decimal.RequireFromString(d.price),
			Stock:       d.stock,
			Category:    d.category,
			Active:      true,
			CreatedAt:   now,
		}
	}
	if err := s.products.Seed(ctx, products); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}
