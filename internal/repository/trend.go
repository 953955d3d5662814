package repository

import (
	"fmt"

	"github.com/go-redis/redis"
)

const trendHashKeyPrefix = "Trend:"

// TrendRepository stores the serialized trend states of whole subsystems.
// CommitRegistry replaces a subsystem's snapshot atomically: a concurrent
// reader (or a reader after a crash) sees either the previous snapshot or
// the new one, never a mix.
type TrendRepository interface {
	CommitRegistry(subsystem string, state map[string][]byte) error
	GetRegistry(subsystem string) (map[string][]byte, error)
	GetTrend(subsystem, trend string) ([]byte, error)
}

type ErrTrendNotFound struct {
	Subsystem string
	TrendName string
}

func (err *ErrTrendNotFound) Error() string {
	return fmt.Sprintf("could not find trend %q in subsystem %q", err.TrendName, err.Subsystem)
}

// RedisTrendRepository keeps one hash per subsystem, field per trend name.
type RedisTrendRepository struct {
	db redis.UniversalClient
}

func NewRedisTrendRepository(db redis.UniversalClient) *RedisTrendRepository {
	return &RedisTrendRepository{db: db}
}

// CommitRegistry writes the full snapshot in one MULTI/EXEC transaction,
// deleting the previous hash first so removed trends do not linger.
func (r *RedisTrendRepository) CommitRegistry(subsystem string, state map[string][]byte) error {
	key := trendHashKey(subsystem)
	pipe := r.db.TxPipeline()
	pipe.Del(key)
	for trendName, value := range state {
		pipe.HSet(key, trendName, value)
	}
	_, err := pipe.Exec()
	if err != nil {
		return fmt.Errorf("[RedisTrendRepository.CommitRegistry] error writing to database: %s", err)
	}
	return nil
}

func (r *RedisTrendRepository) GetRegistry(subsystem string) (map[string][]byte, error) {
	result, err := r.db.HGetAll(trendHashKey(subsystem)).Result()
	if err != nil {
		return nil, fmt.Errorf("[RedisTrendRepository.GetRegistry] error reading from database: %s", err)
	}
	state := make(map[string][]byte, len(result))
	for trendName, value := range result {
		state[trendName] = []byte(value)
	}
	return state, nil
}

func (r *RedisTrendRepository) GetTrend(subsystem, trend string) ([]byte, error) {
	result, err := r.db.HGet(trendHashKey(subsystem), trend).Result()
	if err == redis.Nil {
		return nil, &ErrTrendNotFound{Subsystem: subsystem, TrendName: trend}
	} else if err != nil {
		return nil, fmt.Errorf("[RedisTrendRepository.GetTrend] error reading from database: %s", err)
	}
	return []byte(result), nil
}

func trendHashKey(subsystem string) string {
	return trendHashKeyPrefix + subsystem
}
