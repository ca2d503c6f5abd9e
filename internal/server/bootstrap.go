package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/yukikurage/event-platform-api/internal/config"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/database"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"go.uber.org/zap"
)

const redisPoolSize = 10

// NewSessionStore returns a Redis backed store when REDIS_HOST is set and a
// signed cookie store otherwise.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(redisPoolSize, "tcp", redisAddr, "", "", []byte(cfg.SessionSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// OpenStore connects to the data store named by DB_DRIVER and prepares its
// schema. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.DBDriver == database.DriverMongo {
		client, db, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return repository.Store{}, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn("failed to disconnect mongodb", zap.Error(err))
			}
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			closeFn()
			return repository.Store{}, nil, err
		}
		return repository.NewMongoStore(db), closeFn, nil
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return repository.Store{}, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return repository.Store{}, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	closeFn := func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	if err := database.Migrate(db); err != nil {
		closeFn()
		return repository.Store{}, nil, err
	}

	log.Info("database migrated successfully")
	return repository.NewGormStore(db), closeFn, nil
}
