package service

import (
	"context"
	"sync"

	"partforge/internal/domain"
	"partforge/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The in-memory repositories below mimic the SQL layer closely enough for
// service tests: reads hand out copies (a second read never observes
// uncommitted mutations of the first), version-checked writes fail on stale
// versions, and the stock decrement is guarded under a lock.

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMemProductRepo(products ...*domain.Product) *memProductRepo {
	r := &memProductRepo{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		cp := *p
		r.products[p.ID] = &cp
	}
	return r
}

// get expects r.mu to be held.
func (r *memProductRepo) get(id uuid.UUID) (*domain.Product, bool) {
	p, ok := r.products[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// snapshot is the locked variant for use by the other repositories.
func (r *memProductRepo) snapshot(id uuid.UUID) (*domain.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *memProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return repository.ErrDuplicateSKU
		}
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.get(id)
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (r *memProductRepo) List(ctx context.Context, category *domain.Category, nameQuery string) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for id := range r.products {
		p, _ := r.get(id)
		if category != nil && p.Category != *category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (r *memProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return false, repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

type memBuildRepo struct {
	mu       sync.Mutex
	builds   map[uuid.UUID]*domain.Build
	products *memProductRepo
}

func newMemBuildRepo(products *memProductRepo, builds ...*domain.Build) *memBuildRepo {
	r := &memBuildRepo{builds: make(map[uuid.UUID]*domain.Build), products: products}
	for _, b := range builds {
		cp := cloneBuild(b)
		r.builds[b.ID] = cp
	}
	return r
}

func cloneBuild(b *domain.Build) *domain.Build {
	cp := *b
	cp.Items = make([]domain.BuildItem, len(b.Items))
	copy(cp.Items, b.Items)
	return &cp
}

func (r *memBuildRepo) Create(ctx context.Context, build *domain.Build) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[build.ID] = cloneBuild(build)
	return nil
}

// FindByIDForOwner joins current product rows onto the items, the way the
// SQL repository does.
func (r *memBuildRepo) FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.builds[id]
	if !ok || b.OwnerID != ownerID {
		return nil, repository.ErrBuildNotFound
	}
	cp := cloneBuild(b)
	for i := range cp.Items {
		if p, ok := r.products.snapshot(cp.Items[i].ProductID); ok {
			cp.Items[i].Product = p
		}
	}
	return cp, nil
}

func (r *memBuildRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Build
	for _, b := range r.builds {
		if b.OwnerID == ownerID {
			out = append(out, cloneBuild(b))
		}
	}
	return out, nil
}

func (r *memBuildRepo) BumpVersion(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.builds[id]
	if !ok || b.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	b.Version++
	return nil
}

func (r *memBuildRepo) InsertItem(ctx context.Context, item *domain.BuildItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.builds[item.BuildID]
	if !ok {
		return repository.ErrBuildNotFound
	}
	cp := *item
	cp.Product = nil
	b.Items = append(b.Items, cp)
	return nil
}

func (r *memBuildRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.builds {
		for i := range b.Items {
			if b.Items[i].ID == itemID {
				b.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return repository.ErrBuildItemNotFound
}

func (r *memBuildRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.builds {
		for i := range b.Items {
			if b.Items[i].ID == itemID {
				b.Items = append(b.Items[:i], b.Items[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrBuildItemNotFound
}

type memOrderRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*domain.Order
	products *memProductRepo
}

func newMemOrderRepo(products *memProductRepo, orders ...*domain.Order) *memOrderRepo {
	r := &memOrderRepo{orders: make(map[uuid.UUID]*domain.Order), products: products}
	for _, o := range orders {
		r.orders[o.ID] = cloneOrder(o)
	}
	return r
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}

func (r *memOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.OwnerID != ownerID {
		return nil, repository.ErrOrderNotFound
	}
	return r.withProducts(o), nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return r.withProducts(o), nil
}

func (r *memOrderRepo) withProducts(o *domain.Order) *domain.Order {
	cp := cloneOrder(o)
	for i := range cp.Items {
		if p, ok := r.products.snapshot(cp.Items[i].ProductID); ok {
			cp.Items[i].Product = p
		}
	}
	return cp
}

func (r *memOrderRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.OwnerID == ownerID {
			out = append(out, r.withProducts(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		out = append(out, r.withProducts(o))
	}
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.Status = status
	o.Version++
	return nil
}

func (r *memOrderRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.TotalPrice = total
	o.Version++
	return nil
}

func (r *memOrderRepo) InsertItem(ctx context.Context, item *domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[item.OrderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	cp := *item
	cp.Product = nil
	o.Items = append(o.Items, cp)
	return nil
}

func (r *memOrderRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return repository.ErrOrderItemNotFound
}

func (r *memOrderRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrOrderItemNotFound
}
