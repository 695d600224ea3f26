package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreatePortfolioRequest) (*PortfolioResponse, error)
	Get(ctx context.Context, id snowflake.ID) (*PortfolioResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]PortfolioResponse, error)
	Update(ctx context.Context, actorID, id snowflake.ID, req UpdatePortfolioRequest) (*PortfolioResponse, error)
	Delete(ctx context.Context, actorID, id snowflake.ID) error

	Invite(ctx context.Context, actorID, portfolioID snowflake.ID, req InviteContributorRequest) (*ContributorResponse, error)
	Respond(ctx context.Context, userID, contributorID snowflake.ID, accept bool) (*ContributorResponse, error)
	Remove(ctx context.Context, actorID, contributorID snowflake.ID) error
	ListContributors(ctx context.Context, portfolioID, viewerID snowflake.ID) ([]ContributorResponse, error)
	ListMyInvitations(ctx context.Context, userID snowflake.ID) ([]ContributorResponse, error)
}

type CreatePortfolioRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectURL  string   `json:"project_url"`
	Tags        []string `json:"tags"`
}

type UpdatePortfolioRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ProjectURL  *string  `json:"project_url"`
	Tags        []string `json:"tags"`
}

type InviteContributorRequest struct {
	UserID snowflake.ID
	Role   string
}

type PortfolioResponse struct {
	Portfolio
	Owner userdomain.Summary `json:"owner"`
}

// PortfolioSummary is the portfolio shape embedded in contributor payloads.
type PortfolioSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type ContributorResponse struct {
	ID          string             `json:"id"`
	PortfolioID string             `json:"portfolio_id"`
	UserID      string             `json:"user_id"`
	Role        string             `json:"role"`
	Status      string             `json:"status"`
	InvitedBy   string             `json:"invited_by"`
	RespondedAt *time.Time         `json:"responded_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	User        userdomain.Summary `json:"user"`
	Portfolio   *PortfolioSummary  `json:"portfolio,omitempty"`
}

var (
	ErrPortfolioNotFound   = apperr.NotFound("portfolio_not_found", "Portfolio not found")
	ErrInvalidTitle        = apperr.Validation("invalid_title", "Portfolio title is required")
	ErrInvalidProjectURL   = apperr.Validation("invalid_project_url", "project url must be an absolute http(s) url")
	ErrNotOwner            = apperr.Forbidden("not_portfolio_owner", "Only the portfolio owner can perform this action")
	ErrContributorNotFound = apperr.NotFound("contributor_not_found", "Contributor not found")
	ErrSelfContributor     = apperr.Validation("self_contributor", "You cannot invite yourself as a contributor")
	ErrAlreadyContributor  = apperr.Conflict("already_contributor", "User is already a contributor on this portfolio")
	ErrNotInvitee          = apperr.Forbidden("not_invitee", "Only the invited user can respond to this invitation")
	ErrAlreadyResponded    = apperr.Conflict("contributor_resolved", "This invitation has already been responded to")
)
