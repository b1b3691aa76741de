package auth

import "context"

const RoleAdmin = "admin"

const (
	PermTokensRead   = "tokens.read"
	PermAuditRead    = "audit.read"
	PermReportsRead  = "reports.read"
	PermPrivacyErase = "privacy.erase"
	PermEmailsReveal = "emails.reveal"
)

var rolePermissions = map[string]map[string]bool{
	RoleAdmin: {
		PermTokensRead:   true,
		PermAuditRead:    true,
		PermReportsRead:  true,
		PermPrivacyErase: true,
		PermEmailsReveal: true,
	},
}

// StaticPermissions resolves permissions from the built-in role table.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return rolePermissions[role][permission], nil
}
