// Package docstore implements the multi-tenant document and folder
// storage core: path resolution, folder hierarchy, document lifecycle
// and static file serving, all behind a single tenant-isolation gate.
package docstore

import (
	"strings"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
)

// Allow is the tenant-isolation decision function. It reproduces the
// row-level-security contract in application code, so it must stay a
// single pure function consumed identically by every entry point:
// folder get/tree, document get/list, upload, delete and static serve.
//
// Super admins are allowed unconditionally. Everyone else is allowed
// only when the target org is known and equals their own. A nil target
// org marks a platform/legacy resource, reachable by super admins only.
func Allow(actor *models.Actor, targetOrg *uuid.UUID) bool {
	if actor == nil {
		return false
	}
	if actor.IsSuperAdmin {
		return true
	}
	if targetOrg == nil || actor.OrgID == nil {
		return false
	}
	return *targetOrg == *actor.OrgID
}

// OrgFromPath extracts the org id from the leading segment of a
// storage-relative request path. A leading segment that does not parse
// as a uuid marks a legacy, pre-multi-tenant path and yields nil.
func OrgFromPath(requestPath string) *uuid.UUID {
	first, _, _ := strings.Cut(strings.TrimPrefix(requestPath, "/"), "/")
	if orgID, err := uuid.Parse(first); err == nil {
		return &orgID
	}
	return nil
}

// AllowPath gates a static request on the org segment of the original
// request path. The decision never considers paths discovered by the
// fallback chain, so a stale database record cannot widen access.
func AllowPath(actor *models.Actor, requestPath string) bool {
	return Allow(actor, OrgFromPath(requestPath))
}
