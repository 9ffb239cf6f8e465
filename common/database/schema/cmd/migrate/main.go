package main

import (
	"context"
	"flag"
	"log"

	"talentinsight/common/database"
	"talentinsight/common/database/schema"
	"talentinsight/common/database/schema/migrations"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

func main() {
	target := flag.String("target", "warehouse", "schema to migrate: warehouse or raw")
	driver := flag.String("driver", "sqlite", "raw store driver: sqlite or clickhouse")
	path := flag.String("db", "dwh/talentinsight.db", "sqlite database path")
	chAddr := flag.String("clickhouse", "127.0.0.1:9000", "clickhouse address")
	chDatabase := flag.String("clickhouse-db", "talentinsight", "clickhouse database")
	rollback := flag.Int("rollback", 0, "roll back the given migration version instead of migrating")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		exec    schema.Executor
		dialect = schema.SQLite
	)
	if *target == "raw" && *driver == "clickhouse" {
		conn, err := database.NewClickHouse(ctx, database.Options{
			DSN:      *chAddr,
			Database: *chDatabase,
			Username: "default",
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
		}
		defer func(conn clickhouse.Conn) { _ = conn.Close() }(conn)
		exec, dialect = schema.FromClickHouse(conn), schema.ClickHouse
	} else {
		db, err := database.NewSQLite(ctx, *path, logger)
		if err != nil {
			logger.Fatal("Failed to open sqlite", zap.Error(err))
		}
		defer db.Close()
		exec = schema.FromSQL(db)
	}

	all := migrations.Warehouse()
	if *target == "raw" {
		all = migrations.Raw(dialect)
	}

	migrator := schema.NewMigrator(exec, dialect, logger)

	if *rollback > 0 {
		for _, migration := range all {
			if migration.Version != *rollback {
				continue
			}
			if err := migrator.RollbackMigration(ctx, migration); err != nil {
				logger.Fatal("Failed to roll back migration",
					zap.Int("version", migration.Version),
					zap.Error(err),
				)
			}
			logger.Info("Rolled back migration", zap.Int("version", migration.Version))
			return
		}
		logger.Fatal("Unknown migration version", zap.Int("version", *rollback))
	}

	applied, err := migrator.Migrate(ctx, all)
	if err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	logger.Info("All migrations completed successfully",
		zap.String("target", *target),
		zap.Int("applied", applied),
	)
}
