package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

type Service interface {
	Send(ctx context.Context, senderID snowflake.ID, req SendRequest) (*InvitationResponse, error)
	Accept(ctx context.Context, id, userID snowflake.ID) (*InvitationResponse, error)
	Decline(ctx context.Context, id, userID snowflake.ID) (*InvitationResponse, error)
	Cancel(ctx context.Context, id, userID snowflake.ID) (*InvitationResponse, error)
	ListReceived(ctx context.Context, userID snowflake.ID, status string) ([]InvitationResponse, error)
	ListSent(ctx context.Context, userID snowflake.ID) ([]InvitationResponse, error)
	ListForTeam(ctx context.Context, teamID, actorID snowflake.ID) ([]InvitationResponse, error)
}

type SendRequest struct {
	TeamID     snowflake.ID
	ReceiverID snowflake.ID
	Role       string
	Message    string
}

// TeamSummary is the part of a team shown alongside an invitation.
type TeamSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type InvitationResponse struct {
	ID          string             `json:"id"`
	Team        TeamSummary        `json:"team"`
	Sender      userdomain.Summary `json:"sender"`
	Receiver    userdomain.Summary `json:"receiver"`
	Role        string             `json:"role"`
	Message     string             `json:"message,omitempty"`
	Status      string             `json:"status"`
	ExpiresAt   time.Time          `json:"expires_at"`
	RespondedAt *time.Time         `json:"responded_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

var (
	ErrInvitationNotFound   = apperr.NotFound("invitation_not_found", "Invitation not found")
	ErrCannotInvite         = apperr.Forbidden("cannot_invite", "Only team owners and admins can send invitations")
	ErrCannotInviteSelf     = apperr.Validation("cannot_invite_self", "You cannot invite yourself")
	ErrInvalidStatus        = apperr.Validation("invalid_status", "status must be one of PENDING, ACCEPTED, DECLINED, CANCELLED")
	ErrAlreadyMember        = apperr.Conflict("already_member", "User is already a member of this team")
	ErrAlreadyInvited       = apperr.Conflict("already_invited", "User already has a pending invitation to this team")
	ErrNotReceiver          = apperr.Forbidden("not_receiver", "Only the invited user can respond to this invitation")
	ErrNotSender            = apperr.Forbidden("not_sender", "Only the sender can cancel this invitation")
	ErrInvitationResolved   = apperr.Conflict("invitation_resolved", "Invitation has already been resolved")
	ErrInvitationExpired    = apperr.Gone("invitation_expired", "Invitation has expired")
	ErrCannotViewInvitation = apperr.Forbidden("cannot_view_invitations", "Only team members can view team invitations")
)
