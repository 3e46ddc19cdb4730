package migrations_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/lgatracker/migrations"
)

func TestAll_OrderedAndNonEmpty(t *testing.T) {
	all, err := migrations.All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "000_schema_migrations.sql", all[0].Name)
	assert.Equal(t, "001_visited_regions.sql", all[1].Name)
	assert.True(t, strings.Contains(all[1].SQL, "visited_regions"))
}
