// Package domain describes who has worked with whom, derived from team
// memberships and accepted portfolio contributions.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
)

const (
	ViaTeam      = "team"
	ViaPortfolio = "portfolio"
)

type Service interface {
	HaveCollaborated(ctx context.Context, a, b snowflake.ID) (bool, error)
	ListCollaborators(ctx context.Context, userID snowflake.ID) ([]Collaborator, error)
	SuggestContributors(ctx context.Context, actorID, portfolioID snowflake.ID, limit int) ([]Suggestion, error)
}

type Collaborator struct {
	User userdomain.Summary `json:"user"`
	Via  []string           `json:"via"`
}

// Suggestion is a ranked contributor candidate for a portfolio.
type Suggestion struct {
	User          userdomain.Summary `json:"user"`
	Score         int                `json:"score"`
	MatchedSkills []string           `json:"matched_skills"`
}
