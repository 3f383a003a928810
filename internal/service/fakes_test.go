package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
)

type fakeBackend struct {
	mu        sync.Mutex
	products  []models.Product
	listErr   error
	insertErr error
	updateErr error
	deleteErr error
	onDelete  func(id string)
	listCalls int
	nextID    int
}

func newFakeBackend(products ...models.Product) *fakeBackend {
	return &fakeBackend{products: products}
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeBackend) InsertProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	p := models.Product{
		ID:          fmt.Sprintf("new-%d", f.nextID),
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
		Features:    in.Features,
		Image:       in.Image,
		Stock:       in.Stock,
	}
	f.products = append([]models.Product{p}, f.products...)
	return &p, nil
}

func (f *fakeBackend) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.products {
		if f.products[i].ID != id {
			continue
		}
		if patch.Name != nil {
			f.products[i].Name = *patch.Name
		}
		if patch.Price != nil {
			f.products[i].Price = *patch.Price
		}
		if patch.Image != nil {
			f.products[i].Image = *patch.Image
		}
		if patch.Stock != nil {
			f.products[i].Stock = *patch.Stock
		}
		p := f.products[i]
		return &p, nil
	}
	return nil, store.ErrProductNotFound
}

func (f *fakeBackend) DeleteProduct(ctx context.Context, id string) error {
	if f.onDelete != nil {
		f.onDelete(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return store.ErrDeleteNotApplied
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type memoryValues struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemoryValues() *memoryValues {
	return &memoryValues{data: make(map[string]string)}
}

func (m *memoryValues) PutValue(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[namespace+":"+key] = value
	return nil
}

func (m *memoryValues) GetValue(ctx context.Context, namespace, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[namespace+":"+key]
	return v, ok, nil
}

func (m *memoryValues) TakeValue(ctx context.Context, namespace, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[namespace+":"+key]
	delete(m.data, namespace+":"+key)
	return v, ok, nil
}

func (m *memoryValues) DeleteValue(ctx context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace+":"+key)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*models.User)}
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailTaken
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type failingStorage struct{}

func (failingStorage) Load() ([]models.Order, bool, error) { return nil, false, nil }
func (failingStorage) Save([]models.Order) error           { return errors.New("disk full") }

type recordingNotifier struct {
	mu       sync.Mutex
	placed   []string
	statuses []models.OrderStatus
	err      error
}

func (r *recordingNotifier) NotifyOrderPlaced(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, order.ID)
	return r.err
}

func (r *recordingNotifier) NotifyStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return r.err
}

func testProduct(id, name, category, price string) models.Product {
	return models.Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    models.MustMoney(price),
		Stock:    10,
	}
}
