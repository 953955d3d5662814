package repository

import (
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitAndGetRegistry(t *testing.T) {
	withTrendRepository(t, func(r *RedisTrendRepository) {
		state := map[string][]byte{
			"meanADC": []byte(`{"samples":[{"value":1,"error":0}],"writeCount":1}`),
			"maxADC":  []byte(`{"samples":[{"value":10,"error":0}],"writeCount":1}`),
		}
		err := r.CommitRegistry("EMC", state)
		require.NoError(t, err)

		retrieved, err := r.GetRegistry("EMC")
		require.NoError(t, err)
		assert.Equal(t, state, retrieved)
	})
}

func TestGetRegistry_UnknownSubsystemIsEmpty(t *testing.T) {
	withTrendRepository(t, func(r *RedisTrendRepository) {
		retrieved, err := r.GetRegistry("TPC")
		require.NoError(t, err)
		assert.Empty(t, retrieved)
	})
}

func TestCommitRegistry_ReplacesWholeSnapshot(t *testing.T) {
	withTrendRepository(t, func(r *RedisTrendRepository) {
		err := r.CommitRegistry("EMC", map[string][]byte{
			"meanADC": []byte(`old`),
			"retired": []byte(`old`),
		})
		require.NoError(t, err)

		err = r.CommitRegistry("EMC", map[string][]byte{
			"meanADC": []byte(`new`),
		})
		require.NoError(t, err)

		retrieved, err := r.GetRegistry("EMC")
		require.NoError(t, err)
		// The retired trend is gone; the commit replaces the snapshot atomically.
		assert.Equal(t, map[string][]byte{"meanADC": []byte(`new`)}, retrieved)
	})
}

func TestCommitRegistry_SubsystemsAreIndependent(t *testing.T) {
	withTrendRepository(t, func(r *RedisTrendRepository) {
		require.NoError(t, r.CommitRegistry("EMC", map[string][]byte{"meanADC": []byte(`emc`)}))
		require.NoError(t, r.CommitRegistry("TPC", map[string][]byte{"meanADC": []byte(`tpc`)}))

		emc, err := r.GetRegistry("EMC")
		require.NoError(t, err)
		assert.Equal(t, []byte(`emc`), emc["meanADC"])

		tpc, err := r.GetRegistry("TPC")
		require.NoError(t, err)
		assert.Equal(t, []byte(`tpc`), tpc["meanADC"])
	})
}

func TestGetTrend(t *testing.T) {
	withTrendRepository(t, func(r *RedisTrendRepository) {
		require.NoError(t, r.CommitRegistry("EMC", map[string][]byte{"meanADC": []byte(`value`)}))

		value, err := r.GetTrend("EMC", "meanADC")
		require.NoError(t, err)
		assert.Equal(t, []byte(`value`), value)

		_, err = r.GetTrend("EMC", "unknown")
		require.Error(t, err)
		var notFound *ErrTrendNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "unknown", notFound.TrendName)
	})
}

func withTrendRepository(t *testing.T, action func(r *RedisTrendRepository)) {
	db, err := miniredis.Run()
	require.NoError(t, err)
	defer db.Close()

	client := redis.NewClient(&redis.Options{Addr: db.Addr()})
	defer client.Close()

	action(NewRedisTrendRepository(client))
}
