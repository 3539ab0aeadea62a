package main

import (
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"trustline/internal/platform/config"
	"trustline/internal/platform/logger"
	"trustline/internal/platform/postgres"
	audit "trustline/pkg/platform/audit"
	"trustline/pkg/platform/audit/publisher"
	auditPostgres "trustline/pkg/platform/audit/store/postgres"
)

var purgeCommand = &cli.Command{
	Name:  "audit-purge",
	Usage: "Delete audit entries past their retention horizon",
	Flags: []cli.Flag{
		&cli.TimestampFlag{
			Name:   "now",
			Usage:  "Reference time for expiry; defaults to the current time",
			Layout: time.RFC3339,
		},
	},
	Action: purge,
}

func purge(cCtx *cli.Context) error {
	ctx := cCtx.Context

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("set DATABASE_URL")
	}
	log := logger.New(cfg.LogLevel)

	pool, err := postgres.ConnectPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	now := time.Now().UTC()
	if ts := cCtx.Timestamp("now"); ts != nil {
		now = ts.UTC()
	}

	store := auditPostgres.New(pool)
	purged, err := store.Purge(ctx, now)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "audit entries purged", "count", purged, "now", now)

	publisher.NewPublisher(store,
		publisher.WithLogger(log),
		publisher.WithRetention(cfg.Audit.Retention),
	).Record(ctx, audit.Entry{
		ActorID:   "system",
		Kind:      audit.KindAuditRetentionPurge,
		Timestamp: now,
		Payload:   audit.SecurityPayload{Reason: "retention horizon reached", Count: int(purged)},
	})
	return nil
}
