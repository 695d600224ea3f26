package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

type Service interface {
	Request(ctx context.Context, senderID snowflake.ID, req RequestRecommendation) (*RecommendationResponse, error)
	Give(ctx context.Context, senderID snowflake.ID, req GiveRecommendation) (*RecommendationResponse, error)
	Respond(ctx context.Context, userID, id snowflake.ID, accept bool) (*RecommendationResponse, error)
	ListReceived(ctx context.Context, userID snowflake.ID, recType, status string) ([]RecommendationResponse, error)
	ListGiven(ctx context.Context, userID snowflake.ID, recType string) ([]RecommendationResponse, error)
	ListForPortfolio(ctx context.Context, portfolioID, viewerID snowflake.ID) ([]RecommendationResponse, error)
	Delete(ctx context.Context, senderID, id snowflake.ID) error
	Stats(ctx context.Context, userID snowflake.ID) (RatingStats, error)
}

type RequestRecommendation struct {
	ReceiverID  snowflake.ID
	Message     string
	ProjectName string
	TeamID      *snowflake.ID
}

type GiveRecommendation struct {
	ReceiverID  snowflake.ID
	Message     string
	Rating      *int
	PortfolioID *snowflake.ID
	ProjectName string
	TeamID      *snowflake.ID
}

type RecommendationResponse struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	Rating      *int               `json:"rating,omitempty"`
	IsLike      bool               `json:"is_like"`
	PortfolioID *string            `json:"portfolio_id,omitempty"`
	ProjectName string             `json:"project_name,omitempty"`
	TeamID      *string            `json:"team_id,omitempty"`
	RespondedAt *time.Time         `json:"responded_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Sender      userdomain.Summary `json:"sender"`
	Receiver    userdomain.Summary `json:"receiver"`
}

var (
	ErrRecommendationNotFound = apperr.NotFound("recommendation_not_found", "Recommendation not found")
	ErrSelfRecommendation     = apperr.Validation("self_recommendation", "You cannot recommend yourself")
	ErrInvalidMessage         = apperr.Validation("invalid_message", "Recommendation message is required")
	ErrInvalidRating          = apperr.Validation("invalid_rating", "rating must be between 1 and 5")
	ErrInvalidType            = apperr.Validation("invalid_type", "type must be one of REQUEST, GIVEN")
	ErrInvalidStatus          = apperr.Validation("invalid_status", "status must be one of PENDING, ACCEPTED, REJECTED")
	ErrPortfolioMismatch      = apperr.Validation("portfolio_mismatch", "Portfolio does not belong to the recipient")
	ErrNotCollaborator        = apperr.Forbidden("not_collaborator", "You can only recommend people you have worked with")
	ErrAlreadyRecommended     = apperr.Conflict("already_recommended", "You have already recommended this user")
	ErrAlreadyRequested       = apperr.Conflict("already_requested", "You already have a pending request to this user")
	ErrNotReceiver            = apperr.Forbidden("not_receiver", "Only the recipient can respond to this recommendation")
	ErrNotSender              = apperr.Forbidden("not_sender", "Only the author can delete this recommendation")
	ErrAlreadyResponded       = apperr.Conflict("recommendation_resolved", "This recommendation has already been responded to")
)
