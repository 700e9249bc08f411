// Package authz decides whether an authenticated (or anonymous) caller may
// perform an operation on a resource. Policies are pure: they inspect the
// session and, for updates, the owning username of the record, and never
// touch storage themselves.
package authz

import (
	"github.com/impala-radio/impala/internal/identity"
)

// Decision is the outcome of a policy check. Reason is for logs and tests;
// callers surface a uniform forbidden response regardless of reason.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Policy gates the three resource operations. recordOwner on CanUpdate is
// the username stamped on the record at creation time.
type Policy interface {
	CanRead(sess *identity.Session) Decision
	CanCreate(sess *identity.Session) Decision
	CanUpdate(sess *identity.Session, recordOwner string) Decision
}

// Public allows every operation, authenticated or not.
type Public struct{}

func (Public) CanRead(*identity.Session) Decision           { return allow() }
func (Public) CanCreate(*identity.Session) Decision         { return allow() }
func (Public) CanUpdate(*identity.Session, string) Decision { return allow() }

// RoleGated allows reads to any authenticated caller and writes only to
// holders of the gating role.
type RoleGated struct {
	Role string
}

func (p RoleGated) CanRead(sess *identity.Session) Decision {
	if sess == nil {
		return deny("no session")
	}
	return allow()
}

func (p RoleGated) CanCreate(sess *identity.Session) Decision {
	if sess == nil {
		return deny("no session")
	}
	if !sess.HasRole(p.Role) {
		return deny("missing role " + p.Role)
	}
	return allow()
}

func (p RoleGated) CanUpdate(sess *identity.Session, _ string) Decision {
	return p.CanCreate(sess)
}

// OwnerOrRole allows reads and creates to any authenticated caller, and
// updates to role holders or the record's owner. The role check runs
// first so librarians never depend on ownership.
type OwnerOrRole struct {
	Role string
}

func (p OwnerOrRole) CanRead(sess *identity.Session) Decision {
	if sess == nil {
		return deny("no session")
	}
	return allow()
}

func (p OwnerOrRole) CanCreate(sess *identity.Session) Decision {
	if sess == nil {
		return deny("no session")
	}
	return allow()
}

func (p OwnerOrRole) CanUpdate(sess *identity.Session, recordOwner string) Decision {
	if sess == nil {
		return deny("no session")
	}
	if sess.HasRole(p.Role) {
		return allow()
	}
	if recordOwner != "" && sess.Username == recordOwner {
		return allow()
	}
	return deny("not owner and missing role " + p.Role)
}
