package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// CustomerInput is the data staff enter for a new customer.
type CustomerInput struct {
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Email     string       `json:"email"`
	BirthDate *entity.Date `json:"birth_date"`
}

// CustomerService manages customer records.
type CustomerService struct {
	customers repository.CustomerRepository
	activity  ActivityRecorder
	now       func() time.Time
}

func NewCustomerService(customers repository.CustomerRepository, activity ActivityRecorder) *CustomerService {
	return &CustomerService{customers: customers, activity: activity, now: time.Now}
}

func (s *CustomerService) List(ctx context.Context) ([]entity.Customer, error) {
	return s.customers.FindAll(ctx)
}

func (s *CustomerService) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, &entity.ValidationError{Fields: []string{"phone"}, Msg: "phone is required"}
	}
	return s.customers.FindByPhone(ctx, phone)
}

// Create registers a customer entered by staff. Such profiles start approved.
func (s *CustomerService) Create(ctx context.Context, caller *entity.Caller, in CustomerInput) (*entity.Customer, error) {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(in.Phone) == "" {
		fields = append(fields, "phone")
	}
	if len(fields) > 0 {
		return nil, &entity.ValidationError{Fields: fields, Msg: "invalid customer"}
	}

	c := newCustomer(strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), in.Email, in.BirthDate, s.now())
	c.Approval = entity.ApprovalApproved
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "customer.create", Module: "customers", EntityID: c.ID, Detail: c.Name})
	return c, nil
}

// Approve lets a self-registered customer place orders.
func (s *CustomerService) Approve(ctx context.Context, caller *entity.Caller, id string) (*entity.Customer, error) {
	c, err := s.customers.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "customer.approve", Module: "customers", EntityID: c.ID, Detail: c.Name})
	return c, nil
}

func newCustomer(name, phone, email string, birth *entity.Date, now time.Time) *entity.Customer {
	tier, percent := entity.TierFor(0)
	return &entity.Customer{
		ID:              uuid.New().String(),
		Name:            name,
		Phone:           phone,
		Email:           email,
		Tier:            tier,
		DiscountPercent: percent,
		AmountSpent:     decimal.Zero,
		BirthDate:       birth,
		Approval:        entity.ApprovalPending,
		Active:          true,
		CreatedAt:       now.UTC(),
	}
}
