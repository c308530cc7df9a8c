package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceOverlapExistsQuery(t *testing.T) {
	sql, args, err := resourceOverlapExists(testTenant, "res-1", day(2), day(4), "").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "tenant_id = ", "overlap query stays tenant-scoped")
	assert.Contains(t, sql, "resource_id = ")
	assert.Contains(t, sql, "status IN ")
	assert.Contains(t, sql, "start_date < ")
	assert.Contains(t, sql, "end_date > ")
	assert.NotContains(t, sql, "id <> ")

	assert.Contains(t, args, testTenant)
	assert.Contains(t, args, "res-1")
}

func TestResourceOverlapExistsQueryExcludesReservation(t *testing.T) {
	sql, args, err := resourceOverlapExists(testTenant, "res-1", day(2), day(4), "rsv-9").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "id <> ")
	assert.Contains(t, args, "rsv-9")
}
