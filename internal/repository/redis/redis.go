// Package redis stores indexer entities as JSON documents in Redis.
//
// Writes made by a handler are staged in memory and flushed in one MULTI/EXEC
// transaction once the handler returns successfully.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/redis/go-redis/v9"
)

var _ repository.Repository = (*Repository)(nil)

const (
	kindBalance = "balance"
	kindVolume  = "volume"
	kindCursor  = "cursor"
	kindTVL     = "tvl"
)

type Repository struct {
	logger *slog.Logger
	client *redis.Client
	prefix string
}

func New(addr, password string, db int, prefix string, logger *slog.Logger) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, prefix, logger), nil
}

func NewWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Repository {
	return &Repository{
		logger: logger,
		client: client,
		prefix: prefix,
	}
}

func (r *Repository) key(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, kind, id)
}

// blocksKey is a sorted set of entity ids scored by block number.
func (r *Repository) blocksKey(kind string) string {
	return fmt.Sprintf("%s:%s:blocks", r.prefix, kind)
}

func (r *Repository) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	t := &txn{
		ctx:    ctx,
		repo:   r,
		staged: make(map[string]stagedWrite),
	}
	if err := fn(t); err != nil {
		return err
	}
	if len(t.order) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range t.order {
			w := t.staged[key]
			if w.onlyIfMissing {
				pipe.SetNX(ctx, key, w.data, 0)
			} else {
				pipe.Set(ctx, key, w.data, 0)
			}
			if w.indexKey != "" {
				if w.onlyIfMissing {
					pipe.ZAddNX(ctx, w.indexKey, redis.Z{Score: float64(w.block), Member: w.id})
				} else {
					pipe.ZAdd(ctx, w.indexKey, redis.Z{Score: float64(w.block), Member: w.id})
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit failed: %w", err)
	}
	return nil
}

func (r *Repository) LatestBalanceSnapshot() (repository.BalanceSnapshot, bool) {
	var snapshot repository.BalanceSnapshot
	found, err := r.latest(kindBalance, &snapshot)
	if err != nil {
		r.logger.Error("Error fetching BalanceSnapshot from Redis", "err", err)
		return repository.BalanceSnapshot{}, false
	}
	return snapshot, found
}

func (r *Repository) LatestTVLSnapshot() (repository.TVLSnapshot, bool) {
	var snapshot repository.TVLSnapshot
	found, err := r.latest(kindTVL, &snapshot)
	if err != nil {
		r.logger.Error("Error fetching TVLSnapshot from Redis", "err", err)
		return repository.TVLSnapshot{}, false
	}
	return snapshot, found
}

func (r *Repository) VolumeRecordsRange(min, max uint64) ([]repository.VolumeRecord, error) {
	ctx := context.Background()
	ids, err := r.client.ZRangeByScore(ctx, r.blocksKey(kindVolume), &redis.ZRangeBy{
		Min: strconv.FormatUint(min, 10),
		Max: strconv.FormatUint(max, 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	ret := make([]repository.VolumeRecord, 0, len(ids))
	for _, id := range ids {
		var record repository.VolumeRecord
		found, err := r.get(ctx, r.key(kindVolume, id), &record)
		if err != nil {
			return nil, err
		}
		if found {
			ret = append(ret, record)
		}
	}
	return ret, nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) latest(kind string, out any) (bool, error) {
	ctx := context.Background()
	ids, err := r.client.ZRevRange(ctx, r.blocksKey(kind), 0, 0).Result()
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}
	return r.get(ctx, r.key(kind, ids[0]), out)
}

func (r *Repository) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("malformed %s: %w", key, err)
	}
	return true, nil
}
