package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/impala-radio/impala/internal/identity"
)

func anonymous() *identity.Session { return nil }

func member(username string) *identity.Session {
	return &identity.Session{Username: username}
}

func librarian(username string) *identity.Session {
	return &identity.Session{Username: username, Roles: []string{identity.RoleLibrarian}}
}

func TestPublic_AllowsEverything(t *testing.T) {
	p := Public{}
	assert.True(t, p.CanRead(anonymous()).Allowed)
	assert.True(t, p.CanCreate(anonymous()).Allowed)
	assert.True(t, p.CanUpdate(anonymous(), "someone").Allowed)
}

func TestRoleGated_Read(t *testing.T) {
	p := RoleGated{Role: identity.RoleLibrarian}

	assert.False(t, p.CanRead(anonymous()).Allowed)
	assert.True(t, p.CanRead(member("dj")).Allowed)
	assert.True(t, p.CanRead(librarian("lib")).Allowed)
}

func TestRoleGated_Writes(t *testing.T) {
	p := RoleGated{Role: identity.RoleLibrarian}

	assert.False(t, p.CanCreate(anonymous()).Allowed)
	assert.False(t, p.CanCreate(member("dj")).Allowed)
	assert.True(t, p.CanCreate(librarian("lib")).Allowed)

	assert.False(t, p.CanUpdate(anonymous(), "dj").Allowed)
	assert.False(t, p.CanUpdate(member("dj"), "dj").Allowed)
	assert.True(t, p.CanUpdate(librarian("lib"), "dj").Allowed)
}

func TestOwnerOrRole_ReadAndCreate(t *testing.T) {
	p := OwnerOrRole{Role: identity.RoleLibrarian}

	assert.False(t, p.CanRead(anonymous()).Allowed)
	assert.True(t, p.CanRead(member("dj")).Allowed)

	assert.False(t, p.CanCreate(anonymous()).Allowed)
	assert.True(t, p.CanCreate(member("dj")).Allowed)
}

func TestOwnerOrRole_Update(t *testing.T) {
	p := OwnerOrRole{Role: identity.RoleLibrarian}

	// Anonymous never updates, even if the owner field happens to be empty.
	assert.False(t, p.CanUpdate(anonymous(), "").Allowed)

	// The owner may update their own record.
	assert.True(t, p.CanUpdate(member("dj"), "dj").Allowed)

	// Non-owners without the role are denied.
	assert.False(t, p.CanUpdate(member("dj"), "someone-else").Allowed)

	// Librarians update anything, ownership aside.
	assert.True(t, p.CanUpdate(librarian("lib"), "someone-else").Allowed)

	// A session with an empty username never matches an empty owner.
	assert.False(t, p.CanUpdate(&identity.Session{}, "").Allowed)
}
