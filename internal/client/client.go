// Package client talks to the catalogue and feedback services.
//
// Every client shares the same contract: a find that hits a plain 404 returns
// (nil, nil), lists are never nil and keep server order, a 400 on create
// becomes a validation error carrying the server's messages, and anything
// else unexpected is fatal. Only the target resource's own 404 means absent.
// Clients never retry; that is left to the Doer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DmytroLysenko1/Store/internal/domain"
	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/httpclient"
)

// ProductClient reads the catalogue.
type ProductClient interface {
	FindProduct(ctx context.Context, id int) (*domain.Product, error)
	ListProducts(ctx context.Context, filter string) ([]domain.Product, error)
}

// ReviewClient reads and writes product reviews.
type ReviewClient interface {
	ListByProduct(ctx context.Context, productID int) ([]domain.ProductReview, error)
	CreateReview(ctx context.Context, productID, rating int, review string) (*domain.ProductReview, error)
}

// FavouriteClient reads and writes the calling customer's favourite marks.
type FavouriteClient interface {
	FindByProduct(ctx context.Context, productID int) (*domain.FavouriteProduct, error)
	AddFavourite(ctx context.Context, productID int) (*domain.FavouriteProduct, error)
	// RemoveFavourite reports whether a mark was actually removed.
	RemoveFavourite(ctx context.Context, productID int) (bool, error)
	ListFavourites(ctx context.Context) ([]domain.FavouriteProduct, error)
}

// Doer executes a prepared request. httpclient.Client,
// httpclient.Breaker and credential.Doer all satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// EndpointConfig locates one downstream service.
type EndpointConfig struct {
	BaseURL    string
	PathPrefix string
	// Timeout bounds every call; zero leaves it to the caller's context.
	Timeout time.Duration
}

type endpoint struct {
	doer    Doer
	root    string
	service string
	timeout time.Duration
}

func newEndpoint(service string, doer Doer, cfg EndpointConfig) endpoint {
	return endpoint{
		doer:    doer,
		root:    strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.PathPrefix, "/"),
		service: service,
		timeout: cfg.Timeout,
	}
}

// call sends in as JSON (when non-nil) and decodes a 2xx body into out
// (when non-nil). Non-2xx answers are translated by ParseResponseError.
func (e endpoint) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", e.service, err)
		}
		body = bytes.NewReader(b)
	}

	target := strings.TrimRight(e.root, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", e.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.doer.Do(ctx, req)
	if err != nil {
		return e.transportError(err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, e.service)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Upstream(e.service+" returned a malformed payload", err)
	}
	return nil
}

// transportError keeps credential refusals and already-fatal errors as they
// are and turns everything else, timeouts included, into a fatal upstream
// error. A not-found or validation answer from somewhere in the transport
// chain (the token endpoint, say) says nothing about the target resource, so
// it is detached from the cause before being reported.
func (e endpoint) transportError(err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthorized:
		return fmt.Errorf("call %s: %w", e.service, err)
	case apperrors.KindNotFound, apperrors.KindValidation:
		return apperrors.Upstream("call "+e.service+" failed", errors.New(err.Error()))
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return fmt.Errorf("call %s: %w", e.service, err)
	}
	return apperrors.Upstream("call "+e.service+" failed", err)
}

// createError reclassifies a 404 on a create as fatal: the collection itself
// was missing, which is not an absent resource the caller can act on.
func (e endpoint) createError(err error) error {
	if isNotFound(err) {
		return apperrors.Upstream(e.service+" has no such collection", errors.New(err.Error()))
	}
	return err
}

func isNotFound(err error) bool {
	return apperrors.KindOf(err) == apperrors.KindNotFound
}

func filterQuery(filter string) url.Values {
	if filter == "" {
		return nil
	}
	return url.Values{"filter": []string{filter}}
}
