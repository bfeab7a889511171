package event

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/DmytroLysenko1/Store/internal/domain"
	pkgkafka "github.com/DmytroLysenko1/Store/pkg/kafka"
	"github.com/DmytroLysenko1/Store/pkg/middleware"
)

// Kafka topics for storefront activity events.
var (
	TopicReviewSubmitted  = pkgkafka.Topic("review", "submitted")
	TopicFavouriteAdded   = pkgkafka.Topic("favourite", "added")
	TopicFavouriteRemoved = pkgkafka.Topic("favourite", "removed")
)

const (
	AggregateTypeProduct = "product"
	SourceStorefront     = "storefront"
)

const (
	TypeReviewSubmitted  = "review.submitted"
	TypeFavouriteAdded   = "favourite.added"
	TypeFavouriteRemoved = "favourite.removed"
)

// ReviewSubmittedData is the payload of a review.submitted event.
type ReviewSubmittedData struct {
	ReviewID  string `json:"review_id"`
	ProductID int    `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
}

// FavouriteData is the payload of favourite.added and favourite.removed.
type FavouriteData struct {
	ProductID int    `json:"product_id"`
	UserID    string `json:"user_id"`
}

// Publisher announces what a customer did on the storefront. Publishing is
// best effort: failures are logged and never reach the caller.
type Publisher interface {
	ReviewSubmitted(ctx context.Context, review *domain.ProductReview)
	FavouriteAdded(ctx context.Context, productID int)
	FavouriteRemoved(ctx context.Context, productID int)
}

// EventWriter is satisfied by *pkgkafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront activity to Kafka.
type Producer struct {
	writer  EventWriter
	logger  *slog.Logger
	timeout time.Duration
}

// NewProducer creates a Producer. Each publish gets at most timeout and
// outlives the request that triggered it.
func NewProducer(writer EventWriter, logger *slog.Logger, timeout time.Duration) *Producer {
	return &Producer{
		writer:  writer,
		logger:  logger,
		timeout: timeout,
	}
}

func (p *Producer) ReviewSubmitted(ctx context.Context, review *domain.ProductReview) {
	userID := review.UserID
	if userID == "" {
		userID = middleware.UserIDFromContext(ctx)
	}
	p.publish(ctx, TopicReviewSubmitted, TypeReviewSubmitted, review.ProductID, ReviewSubmittedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    userID,
		Rating:    review.Rating,
	})
}

func (p *Producer) FavouriteAdded(ctx context.Context, productID int) {
	p.publish(ctx, TopicFavouriteAdded, TypeFavouriteAdded, productID, FavouriteData{
		ProductID: productID,
		UserID:    middleware.UserIDFromContext(ctx),
	})
}

func (p *Producer) FavouriteRemoved(ctx context.Context, productID int) {
	p.publish(ctx, TopicFavouriteRemoved, TypeFavouriteRemoved, productID, FavouriteData{
		ProductID: productID,
		UserID:    middleware.UserIDFromContext(ctx),
	})
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, productID int, data any) {
	evt, err := pkgkafka.NewEvent(ctx, eventType, strconv.Itoa(productID), AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	// The customer has already been answered; a client disconnect must not
	// drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.writer.Publish(pubCtx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_id", evt.EventID),
			slog.String("error", err.Error()),
		)
	}
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) ReviewSubmitted(context.Context, *domain.ProductReview) {}
func (Noop) FavouriteAdded(context.Context, int)                     {}
func (Noop) FavouriteRemoved(context.Context, int)                   {}

var (
	_ Publisher   = (*Producer)(nil)
	_ Publisher   = Noop{}
	_ EventWriter = (*pkgkafka.Producer)(nil)
)
