package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	SenderID    *snowflake.ID
	ReceiverID  *snowflake.ID
	PortfolioID *snowflake.ID
	Type        string
	Status      string
}

// RatingStats aggregates accepted GIVEN recommendations for one receiver.
type RatingStats struct {
	Count         int64
	AverageRating *float64
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rec *Recommendation) error
	FindByID(ctx context.Context, id snowflake.ID) (*Recommendation, error)
	List(ctx context.Context, filter ListFilter) ([]Recommendation, error)
	CountSubstantive(ctx context.Context, senderID, receiverID snowflake.ID) (int64, error)
	HasPendingRequest(ctx context.Context, senderID, receiverID snowflake.ID) (bool, error)
	Resolve(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error)
	FulfillRequests(ctx context.Context, requesterID, writerID snowflake.ID, at time.Time) (int64, error)
	Delete(ctx context.Context, id snowflake.ID) error
	ReceivedStats(ctx context.Context, receiverID snowflake.ID) (RatingStats, error)
}
