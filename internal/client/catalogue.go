package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DmytroLysenko1/Store/internal/domain"
)

// HTTPProductClient reads products from the catalogue service.
type HTTPProductClient struct {
	ep endpoint
}

// NewHTTPProductClient creates a catalogue client.
func NewHTTPProductClient(doer Doer, cfg EndpointConfig) *HTTPProductClient {
	return &HTTPProductClient{ep: newEndpoint("catalogue", doer, cfg)}
}

// FindProduct returns nil, nil when the catalogue has no such product.
func (c *HTTPProductClient) FindProduct(ctx context.Context, id int) (*domain.Product, error) {
	var product domain.Product
	err := c.ep.call(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil, nil, &product)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns the catalogue, optionally narrowed by filter.
func (c *HTTPProductClient) ListProducts(ctx context.Context, filter string) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.ep.call(ctx, http.MethodGet, "/products", filterQuery(filter), nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
