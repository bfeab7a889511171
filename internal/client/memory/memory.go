// Package memory holds in-process implementations of the client interfaces.
// They behave like the real services (server-assigned ids, 400-style
// validation, idempotent delete) and count calls so tests can assert on
// downstream traffic.
package memory

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/DmytroLysenko1/Store/internal/domain"
	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
)

const anonymous = "anonymous"

func customer(ctx context.Context) string {
	if id := middleware.UserIDFromContext(ctx); id != "" {
		return id
	}
	return anonymous
}

// Catalogue is an in-memory ProductClient.
type Catalogue struct {
	mu       sync.RWMutex
	products []domain.Product
	calls    atomic.Int64

	// Err, when set, is returned by every call.
	Err error
}

func NewCatalogue(products ...domain.Product) *Catalogue {
	return &Catalogue{products: slices.Clone(products)}
}

func (c *Catalogue) FindProduct(_ context.Context, id int) (*domain.Product, error) {
	c.calls.Add(1)
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

// ListProducts keeps insertion order; filter matches titles case-insensitively.
func (c *Catalogue) ListProducts(_ context.Context, filter string) ([]domain.Product, error) {
	c.calls.Add(1)
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []domain.Product{}
	needle := strings.ToLower(filter)
	for _, p := range c.products {
		if needle == "" || strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Calls reports how many times the catalogue was called.
func (c *Catalogue) Calls() int { return int(c.calls.Load()) }

// Reviews is an in-memory ReviewClient.
type Reviews struct {
	mu      sync.RWMutex
	reviews []domain.ProductReview
	calls   atomic.Int64

	ListErr   error
	CreateErr error
}

func NewReviews(reviews ...domain.ProductReview) *Reviews {
	return &Reviews{reviews: slices.Clone(reviews)}
}

func (r *Reviews) ListByProduct(_ context.Context, productID int) ([]domain.ProductReview, error) {
	r.calls.Add(1)
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.ProductReview{}
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	return out, nil
}

// CreateReview rejects ratings outside 1..5 and reviews over 1000
// characters the way the feedback service does.
func (r *Reviews) CreateReview(ctx context.Context, productID, rating int, review string) (*domain.ProductReview, error) {
	r.calls.Add(1)
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}

	var msgs []string
	switch {
	case rating < 1:
		msgs = append(msgs, "Rating is less than 1")
	case rating > 5:
		msgs = append(msgs, "Rating is greater than 5")
	}
	if len(review) > 1000 {
		msgs = append(msgs, "Review is longer than 1000 characters")
	}
	if len(msgs) > 0 {
		return nil, apperrors.ValidationFailed("feedback rejected the request", msgs)
	}

	created := domain.ProductReview{
		ID:        uuid.NewString(),
		ProductID: productID,
		Rating:    rating,
		Review:    review,
		UserID:    customer(ctx),
	}
	r.mu.Lock()
	r.reviews = append(r.reviews, created)
	r.mu.Unlock()
	return &created, nil
}

func (r *Reviews) Calls() int { return int(r.calls.Load()) }

// Favourites is an in-memory FavouriteClient keyed by customer.
type Favourites struct {
	mu    sync.RWMutex
	marks map[string][]domain.FavouriteProduct
	calls atomic.Int64

	FindErr   error
	AddErr    error
	RemoveErr error
}

func NewFavourites() *Favourites {
	return &Favourites{marks: make(map[string][]domain.FavouriteProduct)}
}

// Mark adds a favourite for userID directly, bypassing call counting.
func (f *Favourites) Mark(userID string, productID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks[userID] = append(f.marks[userID], domain.FavouriteProduct{
		ID: uuid.NewString(), ProductID: productID, UserID: userID,
	})
}

func (f *Favourites) FindByProduct(ctx context.Context, productID int) (*domain.FavouriteProduct, error) {
	f.calls.Add(1)
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, m := range f.marks[customer(ctx)] {
		if m.ProductID == productID {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *Favourites) AddFavourite(ctx context.Context, productID int) (*domain.FavouriteProduct, error) {
	f.calls.Add(1)
	if f.AddErr != nil {
		return nil, f.AddErr
	}
	if productID <= 0 {
		return nil, apperrors.ValidationFailed("feedback rejected the request",
			[]string{"Product id " + strconv.Itoa(productID) + " is invalid"})
	}

	user := customer(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.marks[user] {
		if m.ProductID == productID {
			return &m, nil
		}
	}
	mark := domain.FavouriteProduct{ID: uuid.NewString(), ProductID: productID, UserID: user}
	f.marks[user] = append(f.marks[user], mark)
	return &mark, nil
}

func (f *Favourites) RemoveFavourite(ctx context.Context, productID int) (bool, error) {
	f.calls.Add(1)
	if f.RemoveErr != nil {
		return false, f.RemoveErr
	}
	user := customer(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.marks[user])
	f.marks[user] = slices.DeleteFunc(f.marks[user], func(m domain.FavouriteProduct) bool {
		return m.ProductID == productID
	})
	return len(f.marks[user]) < before, nil
}

func (f *Favourites) ListFavourites(ctx context.Context) ([]domain.FavouriteProduct, error) {
	f.calls.Add(1)
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := append([]domain.FavouriteProduct{}, f.marks[customer(ctx)]...)
	return out, nil
}

func (f *Favourites) Calls() int { return int(f.calls.Load()) }
