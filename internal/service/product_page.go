package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/DmytroLysenko1/Store/internal/client"
	"github.com/DmytroLysenko1/Store/internal/domain"
	"github.com/DmytroLysenko1/Store/internal/event"
	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
)

// FavouriteOutcome is the result of a best-effort favourite change. The
// customer is always sent to Redirect; Degraded holds the failure, if any,
// that left the mark unchanged.
type FavouriteOutcome struct {
	Redirect string
	Degraded error
}

// ReviewResult is either a redirect to the product page or, when the
// feedback service rejected the draft, the page to show again.
type ReviewResult struct {
	Redirect  string
	Rejection *domain.ReviewRejection
}

// ProductPageService composes the product page from the catalogue and
// feedback services and forwards the customer's changes to them.
type ProductPageService struct {
	products   client.ProductClient
	reviews    client.ReviewClient
	favourites client.FavouriteClient
	events     event.Publisher
	logger     *slog.Logger
}

// NewProductPageService creates a new product page service. A nil
// publisher disables activity events.
func NewProductPageService(
	products client.ProductClient,
	reviews client.ReviewClient,
	favourites client.FavouriteClient,
	events event.Publisher,
	logger *slog.Logger,
) *ProductPageService {
	if events == nil {
		events = event.Noop{}
	}
	return &ProductPageService{
		products:   products,
		reviews:    reviews,
		favourites: favourites,
		events:     events,
		logger:     logger,
	}
}

// LoadProduct resolves a product or fails with a not-found error.
func (s *ProductPageService) LoadProduct(ctx context.Context, productID int) (*domain.Product, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, apperrors.NotFound("product", strconv.Itoa(productID))
	}
	return product, nil
}

// GetProductPage loads the product and then fetches its reviews and the
// customer's favourite mark concurrently. Nothing is asked of the feedback
// service for a product the catalogue does not know.
func (s *ProductPageService) GetProductPage(ctx context.Context, productID int) (*domain.ProductView, error) {
	product, err := s.LoadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var (
		reviews   []domain.ProductReview
		favourite *domain.FavouriteProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.reviews.ListByProduct(gctx, product.ID)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		reviews = r
		return nil
	})
	g.Go(func() error {
		f, err := s.favourites.FindByProduct(gctx, product.ID)
		if err != nil {
			return fmt.Errorf("find favourite: %w", err)
		}
		favourite = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.NewProductView(product, reviews, favourite != nil), nil
}

// AddToFavourites marks the product as a favourite. Only resolving the
// product can fail the call; a failed write is logged and reported in the
// outcome, and the customer is redirected either way.
func (s *ProductPageService) AddToFavourites(ctx context.Context, productID int) (FavouriteOutcome, error) {
	product, err := s.LoadProduct(ctx, productID)
	if err != nil {
		return FavouriteOutcome{}, err
	}

	outcome := FavouriteOutcome{Redirect: domain.ProductPath(product.ID)}
	if _, err := s.favourites.AddFavourite(ctx, product.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to add product to favourites",
			slog.Int("product_id", product.ID),
			slog.String("kind", apperrors.KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		outcome.Degraded = err
		return outcome, nil
	}

	s.events.FavouriteAdded(ctx, product.ID)
	return outcome, nil
}

// RemoveFromFavourites drops the favourite mark. Removing a mark that does
// not exist succeeds but publishes nothing.
func (s *ProductPageService) RemoveFromFavourites(ctx context.Context, productID int) (FavouriteOutcome, error) {
	product, err := s.LoadProduct(ctx, productID)
	if err != nil {
		return FavouriteOutcome{}, err
	}

	outcome := FavouriteOutcome{Redirect: domain.ProductPath(product.ID)}
	removed, err := s.favourites.RemoveFavourite(ctx, product.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to remove product from favourites",
			slog.Int("product_id", product.ID),
			slog.String("kind", apperrors.KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		outcome.Degraded = err
		return outcome, nil
	}

	if removed {
		s.events.FavouriteRemoved(ctx, product.ID)
	}
	return outcome, nil
}

// SubmitReview forwards a draft to the feedback service. A rejected draft
// is not an error: the result carries the page to show again, with the
// favourite mark looked up afresh and the server's messages in order.
func (s *ProductPageService) SubmitReview(ctx context.Context, productID int, draft domain.ReviewDraft) (*ReviewResult, error) {
	product, err := s.LoadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.CreateReview(ctx, product.ID, draft.Rating, draft.Review)
	if err == nil {
		s.events.ReviewSubmitted(ctx, review)
		return &ReviewResult{Redirect: domain.ProductPath(product.ID)}, nil
	}
	if apperrors.KindOf(err) != apperrors.KindValidation {
		return nil, fmt.Errorf("create review: %w", err)
	}

	favourite, ferr := s.favourites.FindByProduct(ctx, product.ID)
	if ferr != nil {
		return nil, fmt.Errorf("find favourite: %w", ferr)
	}

	messages := apperrors.ValidationMessages(err)
	if messages == nil {
		messages = []string{}
	}
	return &ReviewResult{
		Rejection: &domain.ReviewRejection{
			View:   domain.NewProductView(product, nil, favourite != nil),
			Draft:  draft,
			Errors: messages,
		},
	}, nil
}

// ListProducts returns the catalogue, optionally narrowed by filter.
func (s *ProductPageService) ListProducts(ctx context.Context, filter string) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListFavouriteProducts returns the customer's favourite products in
// catalogue order. Marks for products the catalogue no longer lists, or
// that filter excludes, are skipped.
func (s *ProductPageService) ListFavouriteProducts(ctx context.Context, filter string) ([]domain.Product, error) {
	var (
		products   []domain.Product
		favourites []domain.FavouriteProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.products.ListProducts(gctx, filter)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		products = p
		return nil
	})
	g.Go(func() error {
		f, err := s.favourites.ListFavourites(gctx)
		if err != nil {
			return fmt.Errorf("list favourites: %w", err)
		}
		favourites = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	marked := make(map[int]struct{}, len(favourites))
	for _, f := range favourites {
		marked[f.ProductID] = struct{}{}
	}
	result := make([]domain.Product, 0, len(marked))
	for _, p := range products {
		if _, ok := marked[p.ID]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}
