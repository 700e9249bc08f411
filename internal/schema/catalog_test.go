package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_EveryEntityCarriesAuditColumns(t *testing.T) {
	for _, s := range Catalog() {
		for _, name := range []string{FieldID, FieldAddedBy, FieldAddedAt} {
			f, ok := s.Field(name)
			require.True(t, ok, "%s is missing %s", s.Entity, name)
			assert.True(t, f.ServerManaged, "%s.%s must be server managed", s.Entity, name)
		}
	}
}

func TestByEntity(t *testing.T) {
	s, ok := ByEntity("holding_groups")
	require.True(t, ok)
	assert.Equal(t, "holding_groups", s.Table)

	_, ok = ByEntity("playlists")
	assert.False(t, ok)
}

func TestCatalog_ForeignKeysReferenceKnownTables(t *testing.T) {
	tables := map[string]bool{}
	for _, s := range Catalog() {
		tables[s.Table] = true
	}
	for _, s := range Catalog() {
		for _, f := range s.Fields {
			if f.References != "" {
				assert.True(t, tables[f.References],
					"%s.%s references unknown table %s", s.Entity, f.Name, f.References)
			}
		}
	}
}
