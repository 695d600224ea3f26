package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

type Service interface {
	IsCompanyEmail(email string) bool
	ValidateCompanyEmail(inviteeEmail, ownerEmail string) error

	Send(ctx context.Context, teamID, inviterID snowflake.ID, req SendRequest) (*EmailInvitation, error)
	Validate(ctx context.Context, token string) (*ValidationResponse, error)
	Accept(ctx context.Context, token string, userID snowflake.ID) (*AcceptResponse, error)
	Cancel(ctx context.Context, id, actorID snowflake.ID) error
	ListForTeam(ctx context.Context, teamID, actorID snowflake.ID) ([]EmailInvitation, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type SendRequest struct {
	Email string
	Role  string
}

type ValidationResponse struct {
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	TeamSlug    string    `json:"team_slug"`
	InviterName string    `json:"inviter_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AcceptResponse struct {
	TeamID   string `json:"team_id"`
	TeamSlug string `json:"team_slug"`
	Role     string `json:"role"`
}

var (
	ErrInvitationNotFound = apperr.NotFound("email_invitation_not_found", "Invitation not found")
	ErrInvalidEmail       = apperr.Validation("invalid_email", "A valid email address is required")
	ErrFreeEmailProvider  = apperr.Validation("free_email_provider", "Please use a company email address. Personal email providers are not allowed")
	ErrDomainMismatch     = apperr.Validation("email_domain_mismatch", "Email domain must match the team owner's company domain")
	ErrCannotInvite       = apperr.Forbidden("cannot_invite", "Only team owners and admins can send invitations")
	ErrCannotManage       = apperr.Forbidden("cannot_manage_invitations", "Only team owners and admins can manage invitations")
	ErrAlreadyMember      = apperr.Conflict("already_member", "User is already a member of this team")
	ErrAlreadyInvited     = apperr.Conflict("already_invited", "An invitation has already been sent to this email")
	ErrNotPending         = apperr.Conflict("invitation_not_pending", "Only pending invitations can be cancelled")
	ErrInvalidToken       = apperr.Validation("invalid_token", "invalid invitation token")
	ErrExpired            = apperr.Validation("invitation_expired", "invitation has expired")
	ErrAlreadyAccepted    = apperr.Validation("invitation_accepted", "invitation has already been accepted")
	ErrCancelled          = apperr.Validation("invitation_cancelled", "invitation has been cancelled")
	ErrDispatchFailed     = apperr.New(apperr.KindInternal, "email_dispatch_failed", "failed to send invitation email")
)
