package domain

import "strconv"

// Product is a catalogue entry as served by the catalogue service.
type Product struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

// ProductReview is a customer review held by the feedback service.
// ID and UserID are assigned by the server.
type ProductReview struct {
	ID        string `json:"id"`
	ProductID int    `json:"productId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review"`
	UserID    string `json:"userId,omitempty"`
}

// FavouriteProduct marks a product as a favourite of one customer.
type FavouriteProduct struct {
	ID        string `json:"id"`
	ProductID int    `json:"productId"`
	UserID    string `json:"userId,omitempty"`
}

// ProductView is everything the product page shows. Product is never nil.
type ProductView struct {
	Product     *Product        `json:"product"`
	Reviews     []ProductReview `json:"reviews"`
	InFavourite bool            `json:"inFavourite"`
}

// NewProductView builds a view whose review list is never nil, so it
// encodes as [] rather than null.
func NewProductView(product *Product, reviews []ProductReview, inFavourite bool) *ProductView {
	if reviews == nil {
		reviews = []ProductReview{}
	}
	return &ProductView{Product: product, Reviews: reviews, InFavourite: inFavourite}
}

// ReviewDraft is a review as submitted by the customer, before the feedback
// service accepted it.
type ReviewDraft struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// ReviewRejection is the page shown again when the feedback service rejects
// a draft: the view without re-fetched reviews, the draft and the messages
// in the order the server sent them.
type ReviewRejection struct {
	View   *ProductView `json:"view"`
	Draft  ReviewDraft  `json:"payload"`
	Errors []string     `json:"errors"`
}

// ProductPath is the customer-facing page of a product, the target of every
// redirect after a mutation.
func ProductPath(productID int) string {
	return "/customer/products/" + strconv.Itoa(productID)
}
