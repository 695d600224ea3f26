package domain

import "github.com/smallbiznis/talentlink/pkg/apperr"

var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid_credentials", "Invalid email or password")
	ErrInvalidToken       = apperr.Unauthorized("invalid_token", "Invalid or expired token")
	ErrMissingToken       = apperr.Unauthorized("missing_token", "Authentication required")
	ErrEmailTaken         = apperr.Conflict("email_taken", "Email is already registered")
	ErrUsernameTaken      = apperr.Conflict("username_taken", "Username is already taken")
	ErrInvalidEmail       = apperr.Validation("invalid_email", "A valid email is required")
	ErrInvalidUsername    = apperr.Validation("invalid_username", "Username must be 3-32 characters of letters, digits, '-' or '_'")
	ErrWeakPassword       = apperr.Validation("weak_password", "Password must be at least 8 characters")
	ErrInvalidRole        = apperr.Validation("invalid_role", "role must be one of FREELANCER, AGENCY, STARTUP")
)
