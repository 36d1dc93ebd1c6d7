// Package storage opens the document store backing summaries and the turn log.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/interviewer/internal/config"
	"github.com/zhouzirui/interviewer/internal/model/interview"
	"github.com/zhouzirui/interviewer/internal/storage/mongo"
	"github.com/zhouzirui/interviewer/internal/storage/sqlite"
)

// Store is a connected document store. It is opened once per process and
// shared by the summary source and the turn logger.
type Store interface {
	interview.SummarySource
	interview.SummaryWriter
	interview.TurnLogger
	Close(ctx context.Context) error
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		store, err := mongo.Open(ctx, mongo.Options{
			URI:               cfg.MongoURI,
			Database:          cfg.MongoDatabase,
			SummaryCollection: cfg.SummaryCollection,
			LogCollection:     cfg.LogCollection,
			Timeout:           cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("[storage] connected to mongo database=%s", cfg.MongoDatabase)
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("[storage] opened sqlite database path=%s", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unsupported store driver %q", interview.ErrConfiguration, cfg.Driver)
	}
}
