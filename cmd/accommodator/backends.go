package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/adapter/storage"
	"github.com/rl1809/accommodator/internal/config"
	"github.com/rl1809/accommodator/internal/port"
)

type backends struct {
	store  storage.Store
	states port.StateRepository
	locker port.Locker

	closers []func() error
}

func openBackends(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*backends, error) {
	b := &backends{}

	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.store = storage.NewBreakerStore("mysql", storage.NewMySQLAdapter(db))
		log.Info("connected to mysql")
	default:
		b.store = storage.NewMemoryStore(storage.SampleUnits()...)
		log.Info("using in-memory catalog with sample units")
	}

	switch cfg.StateBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			b.Close()
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, rdb.Close)
		b.states = storage.NewRedisStateStore(rdb)
		b.locker = storage.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
		log.Info("connected to redis")
	default:
		b.states = storage.NewMemoryStateStore()
		b.locker = storage.NewMemoryLocker(cfg.LockWait)
	}

	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
