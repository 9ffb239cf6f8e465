package rawstore

import (
	"context"
	"fmt"

	"talentinsight/common/database"

	"go.uber.org/zap"
)

const (
	DriverSQLite     = "sqlite"
	DriverClickHouse = "clickhouse"
)

type Options struct {
	Driver string
	// Path is the SQLite file for the embedded store.
	Path       string
	ClickHouse database.Options
}

// Open connects the raw store selected by opts.Driver and creates its table.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		db, err := database.NewSQLite(ctx, opts.Path, logger)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLiteStore(ctx, db, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case DriverClickHouse:
		conn, err := database.NewClickHouse(ctx, opts.ClickHouse, logger)
		if err != nil {
			return nil, err
		}
		store, err := NewClickHouseStore(ctx, conn, logger)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown raw store driver %q", opts.Driver)
	}
}
