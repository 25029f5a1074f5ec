package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Actor describes the authenticated principal behind a request. It is
// request-scoped and never persisted. OrgID is nil for super admins and
// for tokens issued before the tenant migration.
type Actor struct {
	UserID       uuid.UUID  `json:"user_id"`
	OrgID        *uuid.UUID `json:"org_id,omitempty"`
	IsSuperAdmin bool       `json:"is_super_admin"`
}

// Claims are the JWT claims this service consumes. Role grants and
// permission administration live elsewhere; we only read the tenant
// scope and the super-admin flag.
type Claims struct {
	jwt.RegisteredClaims
	OrgID        string `json:"org_id,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin,omitempty"`
	Role         string `json:"role,omitempty"`
}

// ToActor converts verified claims into an Actor. Returns false when
// the subject is not a valid user id.
func (c *Claims) ToActor() (*Actor, bool) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, false
	}

	actor := &Actor{
		UserID:       userID,
		IsSuperAdmin: c.IsSuperAdmin,
	}
	if c.OrgID != "" {
		if orgID, err := uuid.Parse(c.OrgID); err == nil {
			actor.OrgID = &orgID
		}
	}
	return actor, true
}
