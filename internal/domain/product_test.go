package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductView_NeverNilReviews(t *testing.T) {
	view := NewProductView(&Product{ID: 1, Title: "Widget"}, nil, false)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"product":{"id":1,"title":"Widget","details":""},"reviews":[],"inFavourite":false}`, string(raw))
}

func TestProductReview_WireNames(t *testing.T) {
	var r ProductReview
	require.NoError(t, json.Unmarshal([]byte(`{"id":"9b1d","productId":3,"rating":4,"review":"ok","userId":"u-1"}`), &r))
	assert.Equal(t, ProductReview{ID: "9b1d", ProductID: 3, Rating: 4, Review: "ok", UserID: "u-1"}, r)
}

func TestProductPath(t *testing.T) {
	assert.Equal(t, "/customer/products/42", ProductPath(42))
	assert.Equal(t, "/customer/products/1", ProductPath(1))
}
