package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DmytroLysenko1/Store/internal/domain"
)

type newReviewPayload struct {
	ProductID int    `json:"productId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review"`
}

type newFavouritePayload struct {
	ProductID int `json:"productId"`
}

// HTTPReviewClient reads and creates reviews on the feedback service.
type HTTPReviewClient struct {
	ep endpoint
}

// NewHTTPReviewClient creates a review client.
func NewHTTPReviewClient(doer Doer, cfg EndpointConfig) *HTTPReviewClient {
	return &HTTPReviewClient{ep: newEndpoint("feedback", doer, cfg)}
}

func (c *HTTPReviewClient) ListByProduct(ctx context.Context, productID int) ([]domain.ProductReview, error) {
	var reviews []domain.ProductReview
	path := "/product-reviews/by-product-id/" + strconv.Itoa(productID)
	if err := c.ep.call(ctx, http.MethodGet, path, nil, nil, &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.ProductReview{}
	}
	return reviews, nil
}

// CreateReview is sent once; a 400 comes back as a validation error with
// the feedback service's messages, any other refusal but 401/403 is fatal.
func (c *HTTPReviewClient) CreateReview(ctx context.Context, productID, rating int, review string) (*domain.ProductReview, error) {
	var created domain.ProductReview
	payload := newReviewPayload{ProductID: productID, Rating: rating, Review: review}
	if err := c.ep.call(ctx, http.MethodPost, "/product-reviews", nil, payload, &created); err != nil {
		return nil, c.ep.createError(err)
	}
	return &created, nil
}

// HTTPFavouriteClient manages favourite marks on the feedback service. The
// customer is identified by the credential on the call, never by a parameter.
type HTTPFavouriteClient struct {
	ep endpoint
}

// NewHTTPFavouriteClient creates a favourites client.
func NewHTTPFavouriteClient(doer Doer, cfg EndpointConfig) *HTTPFavouriteClient {
	return &HTTPFavouriteClient{ep: newEndpoint("feedback", doer, cfg)}
}

func (c *HTTPFavouriteClient) FindByProduct(ctx context.Context, productID int) (*domain.FavouriteProduct, error) {
	var fav domain.FavouriteProduct
	path := "/favourite-products/by-product-id/" + strconv.Itoa(productID)
	err := c.ep.call(ctx, http.MethodGet, path, nil, nil, &fav)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

func (c *HTTPFavouriteClient) AddFavourite(ctx context.Context, productID int) (*domain.FavouriteProduct, error) {
	var fav domain.FavouriteProduct
	if err := c.ep.call(ctx, http.MethodPost, "/favourite-products", nil, newFavouritePayload{ProductID: productID}, &fav); err != nil {
		return nil, c.ep.createError(err)
	}
	return &fav, nil
}

// RemoveFavourite is idempotent: a mark that is already gone is not an
// error, it just reports false.
func (c *HTTPFavouriteClient) RemoveFavourite(ctx context.Context, productID int) (bool, error) {
	path := "/favourite-products/by-product-id/" + strconv.Itoa(productID)
	err := c.ep.call(ctx, http.MethodDelete, path, nil, nil, nil)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *HTTPFavouriteClient) ListFavourites(ctx context.Context) ([]domain.FavouriteProduct, error) {
	var favs []domain.FavouriteProduct
	if err := c.ep.call(ctx, http.MethodGet, "/favourite-products", nil, nil, &favs); err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []domain.FavouriteProduct{}
	}
	return favs, nil
}
