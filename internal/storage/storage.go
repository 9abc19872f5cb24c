package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/util"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	redisPingTimeout = 5 * time.Second
	redisOpTimeout   = 2 * time.Second
)

// FileStorage implements persistence using JSON files
type FileStorage struct {
	filePath string
}

// NewFileStorage stores stats at filePath, or core.StatsFilePath when empty.
func NewFileStorage(filePath string) *FileStorage {
	if filePath == "" {
		filePath = core.StatsFilePath
	}
	return &FileStorage{filePath: filePath}
}

// Location returns the stats file path.
func (fs *FileStorage) Location() string {
	return "file:" + fs.filePath
}

func (fs *FileStorage) SaveStats(stats *core.FetchStats) error {
	data, err := sonic.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return os.WriteFile(fs.filePath, data, core.FilePermissionReadWrite)
}

func (fs *FileStorage) LoadStats() (*core.FetchStats, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &core.FetchStats{FetchHistory: []core.FetchRecord{}}, nil
		}
		return nil, err
	}
	return decodeStats(data)
}

func (fs *FileStorage) Close() error {
	return nil
}

// RedisStorage implements persistence using Redis
type RedisStorage struct {
	client    *redis.Client
	ctx       context.Context
	key       string
	opTimeout time.Duration
}

// RedisStorageConfig Redis storage config
type RedisStorageConfig struct {
	URL string
	Key string
	// OpTimeout bounds every save and load; zero means redisOpTimeout.
	OpTimeout time.Duration
}

// NewRedisStorage connects to config.URL and verifies the connection with a ping.
func NewRedisStorage(config RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ContextTimeoutEnabled = true
	client := redis.NewClient(opts)
	ctx := context.Background()

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	key := config.Key
	if key == "" {
		key = core.StatsRedisKey
	}
	return newRedisStorage(client, key, config.OpTimeout), nil
}

func newRedisStorage(client *redis.Client, key string, opTimeout time.Duration) *RedisStorage {
	if opTimeout <= 0 {
		opTimeout = redisOpTimeout
	}
	return &RedisStorage{client: client, ctx: context.Background(), key: key, opTimeout: opTimeout}
}

// Location returns the Redis key holding the stats.
func (rs *RedisStorage) Location() string {
	return "redis:" + rs.key
}

// SaveStats runs on the fetch path, so a stalled server fails the save after
// opTimeout instead of holding the fetch.
func (rs *RedisStorage) SaveStats(stats *core.FetchStats) error {
	data, err := util.MarshalJSON(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	ctx, cancel := context.WithTimeout(rs.ctx, rs.opTimeout)
	defer cancel()
	return rs.client.Set(ctx, rs.key, data, 0).Err()
}

func (rs *RedisStorage) LoadStats() (*core.FetchStats, error) {
	ctx, cancel := context.WithTimeout(rs.ctx, rs.opTimeout)
	defer cancel()
	val, err := rs.client.Get(ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &core.FetchStats{FetchHistory: []core.FetchRecord{}}, nil
		}
		return nil, err
	}
	return decodeStats(val)
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

func decodeStats(data []byte) (*core.FetchStats, error) {
	var stats core.FetchStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if stats.FetchHistory == nil {
		stats.FetchHistory = []core.FetchRecord{}
	}
	return &stats, nil
}

// InitStorage picks Redis when REDIS_URL is set and reachable, and a JSON
// file at STATS_FILE otherwise.
func InitStorage(logger core.Logger) core.StorageInterface {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	statsFile := util.GetEnvWithDefault("STATS_FILE", core.StatsFilePath)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisStorage, err := NewRedisStorage(RedisStorageConfig{
			URL: redisURL,
			Key: core.StatsRedisKey,
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis storage: %v, falling back to file storage at %s", err, statsFile)
			return NewFileStorage(statsFile)
		}
		logger.Info("Using Redis storage for fetch stats")
		return redisStorage
	}

	logger.Info("Using file storage for fetch stats at %s", statsFile)
	return NewFileStorage(statsFile)
}
