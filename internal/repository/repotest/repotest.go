// Package repotest provides in-memory repositories and collaborators for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// PublishedEvent is one recorded publish call.
type PublishedEvent struct {
	Topic string
	Key   string
	Event any
}

// Publisher records events. A non-nil Err fails every publish. With Hang set,
// each publish blocks until its context is done, like an unreachable broker.
type Publisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
	Hang   bool
}

func (p *Publisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	if p.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

// Topics lists published topics in order.
func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Topic
	}
	return out
}

// Activity records audit entries in memory.
type Activity struct {
	mu      sync.Mutex
	Entries []entity.ActivityEntry
}

func (a *Activity) Record(_ context.Context, e entity.ActivityEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, e)
}

// Actions lists recorded actions in order.
func (a *Activity) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Action
	}
	return out
}

// Customers is an in-memory CustomerRepository.
type Customers struct {
	ByID map[string]*entity.Customer
}

func NewCustomers(cs ...*entity.Customer) *Customers {
	f := &Customers{ByID: make(map[string]*entity.Customer)}
	for _, c := range cs {
		f.ByID[c.ID] = c
	}
	return f
}

func (f *Customers) FindAll(context.Context) ([]entity.Customer, error) {
	var out []entity.Customer
	for _, c := range f.ByID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *Customers) FindByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := f.ByID[id]
	if !ok || !c.Active {
		return nil, entity.NotFound("customer")
	}
	cp := *c
	return &cp, nil
}

func (f *Customers) FindByPhone(_ context.Context, phone string) (*entity.Customer, error) {
	for _, c := range f.ByID {
		if c.Phone == phone && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, entity.NotFound("customer")
}

func (f *Customers) Create(_ context.Context, c *entity.Customer) error {
	for _, existing := range f.ByID {
		if existing.Phone == c.Phone {
			return entity.ErrConflict
		}
	}
	f.ByID[c.ID] = c
	return nil
}

func (f *Customers) Approve(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := f.ByID[id]
	if !ok {
		return nil, entity.NotFound("customer")
	}
	c.Approval = entity.ApprovalApproved
	cp := *c
	return &cp, nil
}

// Orders mirrors the transactional store: all lines are checked against
// stock before anything changes.
type Orders struct {
	mu       sync.Mutex
	Products map[string]*entity.Product
	Orders   map[string]*entity.Order
	Drafts   []*entity.OrderDraft
}

func NewOrders(products ...*entity.Product) *Orders {
	f := &Orders{Products: make(map[string]*entity.Product), Orders: make(map[string]*entity.Order)}
	for _, p := range products {
		f.Products[p.ID] = p
	}
	return f
}

// Stock returns the current stock of a product.
func (f *Orders) Stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Products[id].Stock
}

func (f *Orders) PlaceOrder(_ context.Context, d *entity.OrderDraft) (*entity.Order, []entity.ProductStockUpdated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Drafts = append(f.Drafts, d)

	need := make(map[string]int)
	for _, l := range d.Lines {
		need[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p, ok := f.Products[id]
		if !ok || !p.Active {
			return nil, nil, entity.NotFound("product")
		}
		if p.Stock < need[id] {
			return nil, nil, &entity.InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: need[id]}
		}
	}

	items := make([]entity.OrderItem, len(d.Lines))
	for i, l := range d.Lines {
		p := f.Products[l.ProductID]
		items[i] = entity.OrderItem{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Quantity: l.Quantity}
		if l.Name != "" {
			items[i].Name = l.Name
		}
		if l.UnitPrice != nil {
			items[i].UnitPrice = *l.UnitPrice
		}
	}
	var updates []entity.ProductStockUpdated
	for _, id := range ids {
		p := f.Products[id]
		p.Stock -= need[id]
		updates = append(updates, entity.ProductStockUpdated{ProductID: id, Name: p.Name, NewStock: p.Stock, UpdatedAt: d.CreatedAt})
	}

	totals := entity.PriceItems(items, d.DiscountPercent)
	o := &entity.Order{
		ID: d.ID, CustomerID: d.CustomerID, Items: items,
		Subtotal: totals.Subtotal, DiscountPercent: d.DiscountPercent, Discount: totals.Discount, Total: totals.Total,
		Notes: d.Notes, Status: entity.OrderStatusPending, CreatedAt: d.CreatedAt,
	}
	f.Orders[o.ID] = o
	cp := *o
	return &cp, updates, nil
}

func (f *Orders) FindRecent(_ context.Context, limit int, customerID string) ([]entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Order
	for _, o := range f.Orders {
		if customerID == "" || o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Orders) FindByID(_ context.Context, id string) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.Orders[id]
	if !ok {
		return nil, entity.NotFound("order")
	}
	cp := *o
	return &cp, nil
}

func (f *Orders) UpdateStatus(_ context.Context, id string, next entity.OrderStatus) (*entity.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.Orders[id]
	if !ok {
		return nil, entity.NotFound("order")
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, entity.ErrInvalidTransition
	}
	change := &entity.StatusChange{From: o.Status}
	if next == entity.OrderStatusCancelled {
		for _, it := range o.Items {
			p := f.Products[it.ProductID]
			p.Stock += it.Quantity
			change.Restocked = append(change.Restocked, entity.ProductStockUpdated{ProductID: p.ID, Name: p.Name, NewStock: p.Stock})
		}
	}
	o.Status = next
	cp := *o
	change.Order = &cp
	return change, nil
}

// Products is an in-memory ProductRepository.
type Products struct {
	ByID map[string]*entity.Product
}

func NewProducts(ps ...*entity.Product) *Products {
	f := &Products{ByID: make(map[string]*entity.Product)}
	for _, p := range ps {
		f.ByID[p.ID] = p
	}
	return f
}

func (f *Products) FindAll(context.Context) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range f.ByID {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Products) FindByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := f.ByID[id]
	if !ok || !p.Active {
		return nil, entity.NotFound("product")
	}
	cp := *p
	return &cp, nil
}

func (f *Products) FindLowStock(_ context.Context, threshold int) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range f.ByID {
		if p.Active && p.Stock <= threshold {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Products) Create(_ context.Context, p *entity.Product) error {
	f.ByID[p.ID] = p
	return nil
}

func (f *Products) Update(_ context.Context, p *entity.Product) error {
	if _, ok := f.ByID[p.ID]; !ok {
		return entity.NotFound("product")
	}
	cp := *p
	f.ByID[p.ID] = &cp
	return nil
}

func (f *Products) Deactivate(_ context.Context, id string) error {
	p, ok := f.ByID[id]
	if !ok || !p.Active {
		return entity.NotFound("product")
	}
	p.Active = false
	return nil
}

func (f *Products) Seed(_ context.Context, ps []entity.Product) error {
	if len(f.ByID) > 0 {
		return nil
	}
	for i := range ps {
		f.ByID[ps[i].ID] = &ps[i]
	}
	return nil
}

// Alerts is an in-memory StockAlertRepository.
type Alerts struct {
	Alerts []*entity.StockAlert
}

func (f *Alerts) CreateIfAbsent(_ context.Context, a *entity.StockAlert) (bool, error) {
	for _, existing := range f.Alerts {
		if existing.ProductID == a.ProductID && !existing.Resolved {
			return false, nil
		}
	}
	f.Alerts = append(f.Alerts, a)
	return true, nil
}

func (f *Alerts) FindAll(_ context.Context, resolved *bool) ([]entity.StockAlert, error) {
	var out []entity.StockAlert
	for _, a := range f.Alerts {
		if resolved == nil || a.Resolved == *resolved {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *Alerts) Resolve(_ context.Context, id string) (*entity.StockAlert, error) {
	for _, a := range f.Alerts {
		if a.ID == id && !a.Resolved {
			a.Resolved = true
			now := time.Now()
			a.ResolvedAt = &now
			cp := *a
			return &cp, nil
		}
	}
	return nil, entity.NotFound("stock alert")
}

// Users is an in-memory UserRepository. Customer profiles land in Customers.
type Users struct {
	ByEmail   map[string]*entity.User
	Customers *Customers
}

func NewUsers() *Users {
	return &Users{ByEmail: make(map[string]*entity.User), Customers: NewCustomers()}
}

func (f *Users) Create(_ context.Context, u *entity.User) error {
	if _, ok := f.ByEmail[u.Email]; ok {
		return entity.ErrConflict
	}
	f.ByEmail[u.Email] = u
	return nil
}

func (f *Users) CreateWithCustomer(ctx context.Context, u *entity.User, c *entity.Customer) error {
	if _, ok := f.ByEmail[u.Email]; ok {
		return entity.ErrConflict
	}
	if err := f.Customers.Create(ctx, c); err != nil {
		return err
	}
	u.CustomerID = c.ID
	f.ByEmail[u.Email] = u
	return nil
}

func (f *Users) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := f.ByEmail[email]
	if !ok {
		return nil, entity.NotFound("user")
	}
	return u, nil
}

// Tokens issues predictable tokens.
type Tokens struct{}

func (Tokens) Issue(u *entity.User) (string, time.Time, error) {
	if u.ID == "" {
		return "", time.Time{}, errors.New("no subject")
	}
	return "token-for-" + u.ID, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), nil
}

// ActivityLog is an in-memory ActivityRepository.
type ActivityLog struct {
	mu      sync.Mutex
	Entries []entity.ActivityEntry
}

func (l *ActivityLog) Append(_ context.Context, e *entity.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, *e)
	return nil
}

func (l *ActivityLog) FindRecent(_ context.Context, limit int) ([]entity.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.ActivityEntry, 0, len(l.Entries))
	for i := len(l.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.Entries[i])
	}
	return out, nil
}

// Stats returns a fixed summary.
type Stats struct {
	Result entity.Stats
	Err    error
}

func (s *Stats) Summary(context.Context) (*entity.Stats, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	cp := s.Result
	return &cp, nil
}

var (
	_ repository.CustomerRepository   = (*Customers)(nil)
	_ repository.OrderRepository      = (*Orders)(nil)
	_ repository.ProductRepository    = (*Products)(nil)
	_ repository.StockAlertRepository = (*Alerts)(nil)
	_ repository.UserRepository       = (*Users)(nil)
	_ repository.ActivityRepository   = (*ActivityLog)(nil)
	_ repository.StatsRepository      = (*Stats)(nil)
)
