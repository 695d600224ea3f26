package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
)

type Service interface {
	Get(ctx context.Context, userID snowflake.ID) (*Dashboard, error)
}

// Dashboard is the signed-in user's home screen in one payload.
type Dashboard struct {
	Teams                  []teamdomain.MyTeam                   `json:"teams"`
	PendingInvitations     []invitationdomain.InvitationResponse `json:"pending_invitations"`
	ContributorInvitations []portfoliodomain.ContributorResponse `json:"contributor_invitations"`
	Applications           map[string]int64                      `json:"applications"`
	ManagedJobs            []jobdomain.Posting                   `json:"managed_jobs"`
	Recommendations        RecommendationSummary                 `json:"recommendations"`
}

type RecommendationSummary struct {
	Received        int64    `json:"received"`
	PendingRequests int      `json:"pending_requests"`
	AverageRating   *float64 `json:"average_rating"`
}
