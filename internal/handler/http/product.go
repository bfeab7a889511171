package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DmytroLysenko1/Store/internal/domain"
	"github.com/DmytroLysenko1/Store/internal/service"
	apperrors "github.com/DmytroLysenko1/Store/pkg/errors"
	"github.com/DmytroLysenko1/Store/pkg/httputil"
	"github.com/DmytroLysenko1/Store/pkg/pagination"
	"github.com/DmytroLysenko1/Store/pkg/validator"
)

// ProductHandler handles HTTP requests for the customer product pages.
type ProductHandler struct {
	service *service.ProductPageService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductPageService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the review form, sent either as JSON or as an
// urlencoded form. Rating is not range-checked here: the feedback service
// owns that rule and its messages are shown to the customer. The length cap
// only bounds what gets forwarded.
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review" validate:"max=4000"`
}

// --- Handlers ---

// ListProducts handles GET /customer/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.service.ListProducts(r.Context(), q.Get("filter"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.Slice(products, pagination.FromQuery(q)),
	})
}

// ListFavourites handles GET /customer/favourites
func (h *ProductHandler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.service.ListFavouriteProducts(r.Context(), q.Get("filter"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.Slice(products, pagination.FromQuery(q)),
	})
}

// GetProduct handles GET /customer/products/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	view, err := h.service.GetProductPage(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// AddToFavourites handles POST /customer/products/{productId}/add-to-favourites
func (h *ProductHandler) AddToFavourites(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	outcome, err := h.service.AddToFavourites(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.Redirect(w, r, outcome.Redirect, http.StatusSeeOther)
}

// RemoveFromFavourites handles POST /customer/products/{productId}/remove-from-favourites
func (h *ProductHandler) RemoveFromFavourites(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	outcome, err := h.service.RemoveFromFavourites(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.Redirect(w, r, outcome.Redirect, http.StatusSeeOther)
}

// CreateReview handles POST /customer/products/{productId}/create-review
func (h *ProductHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	req, err := decodeReview(r)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.SubmitReview(r.Context(), id, domain.ReviewDraft{
		Rating: req.Rating,
		Review: req.Review,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if res.Rejection != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{Data: res.Rejection})
		return
	}
	http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
}

func decodeReview(r *http.Request) (CreateReviewRequest, error) {
	var req CreateReviewRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := validator.DecodeAndValidate(r, &req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("parse form: %w", err)
	}
	if raw := strings.TrimSpace(r.PostForm.Get("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperrors.InvalidInput("rating must be a whole number")
		}
		req.Rating = rating
	}
	req.Review = r.PostForm.Get("review")
	return req, validator.Validate(req)
}
