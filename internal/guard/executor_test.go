package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlsql/internal/config"
	"nlsql/internal/store"
	"nlsql/internal/store/storetest"
)

// countingQuerier records every query that reaches the dataset.
type countingQuerier struct {
	calls []string
	rs    *store.ResultSet
	err   error
}

func (c *countingQuerier) Query(_ context.Context, q string) (*store.ResultSet, error) {
	c.calls = append(c.calls, q)
	return c.rs, c.err
}

func TestExecutor_RefusedQueryNeverReachesDataset(t *testing.T) {
	q := &countingQuerier{rs: &store.ResultSet{Records: []store.Record{}}}
	exec := NewExecutor(q)

	query, rs, err := exec.Run(context.Background(), "DROP TABLE flights;")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "DROP TABLE flights;", query)
	assert.Nil(t, rs)
	assert.Empty(t, q.calls)
}

func TestExecutor_SanitizesBeforeValidateAndRun(t *testing.T) {
	q := &countingQuerier{rs: &store.ResultSet{Records: []store.Record{}}}
	exec := NewExecutor(q)

	query, _, err := exec.Run(context.Background(), "```sql\nSELECT COUNT(*) FROM flights\n```")

	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM flights", query)
	assert.Equal(t, []string{"SELECT COUNT(*) FROM flights"}, q.calls)
}

func TestExecutor_PropagatesExecutionError(t *testing.T) {
	q := &countingQuerier{err: errors.New("no such table: passengers")}
	exec := NewExecutor(q)

	query, rs, err := exec.Run(context.Background(), "SELECT * FROM passengers")

	assert.EqualError(t, err, "no such table: passengers")
	assert.Equal(t, "SELECT * FROM passengers", query)
	assert.Nil(t, rs)
}

func TestExecutor_AgainstDataset(t *testing.T) {
	ds, err := store.Open(context.Background(), config.DatabaseConfig{Path: storetest.NewDataset(t)})
	require.NoError(t, err)
	defer ds.Close()
	exec := NewExecutor(ds)

	t.Run("scenario: show all airlines", func(t *testing.T) {
		_, rs, err := exec.Run(context.Background(), "SELECT * FROM airlines LIMIT 20")
		require.NoError(t, err)
		assert.LessOrEqual(t, rs.Len(), 20)
		assert.Equal(t, len(storetest.Airlines), rs.Len())
		for _, rec := range rs.Records {
			assert.Equal(t, []string{"IATA_CODE", "AIRLINE"}, rec.Keys())
		}
	})

	t.Run("scenario: zero matching rows", func(t *testing.T) {
		_, rs, err := exec.Run(context.Background(), "SELECT * FROM flights WHERE ORIGIN_AIRPORT = 'XXX'")
		require.NoError(t, err)
		require.NotNil(t, rs)
		assert.True(t, rs.Empty())
	})

	t.Run("forbidden leaves dataset intact", func(t *testing.T) {
		_, _, err := exec.Run(context.Background(), "delete from airlines")
		require.ErrorIs(t, err, ErrForbidden)

		_, rs, err := exec.Run(context.Background(), "SELECT COUNT(*) AS n FROM airlines")
		require.NoError(t, err)
		n, _ := rs.Records[0].Get("n")
		assert.EqualValues(t, len(storetest.Airlines), n)
	})
}
