// Package domain contains registration and token types for the auth service.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Authenticate(ctx context.Context, rawToken string) (snowflake.ID, error)
}

type RegisterRequest struct {
	Email     string
	Username  string
	Password  string
	Role      string
	FirstName string
	LastName  string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *userdomain.User `json:"user"`
}
