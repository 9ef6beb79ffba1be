package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/target/userdeck/config"
	redisadapter "github.com/target/userdeck/internal/adapters/redis"
	"github.com/target/userdeck/internal/bootstrap"
	domainauth "github.com/target/userdeck/internal/domain/auth"
)

var errRedisNotConfigured = errors.New("redis not configured")

// sessionAdmin is the slice of the Redis session store the commands use.
type sessionAdmin interface {
	List(ctx context.Context) ([]redisadapter.StoredSession, error)
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

var _ sessionAdmin = (*redisadapter.SessionStore)(nil)

// openSessionStore connects to Redis and returns the session store plus a
// close function.
//
//nolint:ireturn // the interface lets tests substitute an in-memory store.
func openSessionStore(cmdCtx *commandContext) (sessionAdmin, func() error, error) {
	if cmdCtx.openSessions != nil {
		return cmdCtx.openSessions(cmdCtx)
	}
	if cmdCtx.Config.Session.Backend != config.SessionBackendRedis {
		cmdCtx.Logger.Warn("session backend is not redis; only leftover server-side sessions will be found",
			"backend", cmdCtx.Config.Session.Backend)
	}

	client, err := maybeConnectRedis(cmdCtx)
	if err != nil {
		return nil, nil, err
	}
	store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Session.RedisPrefix)
	return store, client.Close, nil
}

// maybeConnectRedis returns a connected client when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(cmdCtx *commandContext) (redis.UniversalClient, error) {
	if !hasRedisConfig(&cmdCtx.Config.Redis) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, bootstrap.RedisConnectConfig{
		Redis:  cmdCtx.Config.Redis,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}
