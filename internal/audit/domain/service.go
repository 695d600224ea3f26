package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

// Entry describes one mutation to record.
type Entry struct {
	TeamID     *snowflake.ID
	ActorID    snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Action string
}

type ListResponse struct {
	AuditLogs []Log               `json:"audit_logs"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// Record never fails the caller. Write errors are logged.
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, teamID, actorID snowflake.ID, req ListRequest) (*ListResponse, error)
}

var ErrCannotViewAuditLogs = apperr.Forbidden("cannot_view_audit_logs", "Only team owners and admins can view audit logs")
