package domain

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

// NormalizeEmail lower-cases a bare address. ok is false when raw is not a single plain address.
func NormalizeEmail(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", false
	}
	return raw, EmailDomain(raw) != ""
}

// EmailDomain returns the lower-cased part after the last "@", or "" when there is none.
func EmailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// IsCompanyEmail reports whether email has a domain outside the free provider denylist.
func IsCompanyEmail(policy config.Policy, email string) bool {
	domain := EmailDomain(email)
	return domain != "" && !policy.IsFreeEmailDomain(domain)
}

// ValidateCompanyEmail requires a company address on exactly the owner's domain.
func ValidateCompanyEmail(policy config.Policy, inviteeEmail, ownerEmail string) error {
	inviteeDomain := EmailDomain(inviteeEmail)
	if inviteeDomain == "" {
		return ErrInvalidEmail
	}
	if policy.IsFreeEmailDomain(inviteeDomain) {
		return ErrFreeEmailProvider
	}
	ownerDomain := EmailDomain(ownerEmail)
	if ownerDomain == "" || inviteeDomain != ownerDomain {
		return apperr.Validation(ErrDomainMismatch.Code,
			fmt.Sprintf("Email domain must match the team owner's company domain (%s)", ownerDomain))
	}
	return nil
}
