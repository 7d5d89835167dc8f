// Package app assembles the storage backend and services from config. Both
// binaries share it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/config"
	"github.com/zhank48/ultfpeb-sub004/internal/db"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/memory"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/postgres"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/sqlite"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

// Backend is an open store plus the handle its kind needs for admin tasks.
// Exactly one of SQL and PG is set for the database backends.
type Backend struct {
	Kind  string
	Store store.Store
	SQL   *sql.DB
	PG    *postgres.Store

	closers []func()
}

// OpenStore opens the backend named by cfg.Store. Schema migrations run as
// part of opening.
func OpenStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Backend, error) {
	b := &Backend{Kind: cfg.Store}

	switch cfg.Store {
	case config.StoreMemory:
		b.Store = memory.New()

	case config.StoreSQLite:
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		writer := db.NewWorker(conn)
		b.SQL = conn
		b.Store = sqlite.New(conn, writer)
		b.closers = append(b.closers, writer.Close, func() { _ = conn.Close() })

	case config.StorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.PG = pg
		b.Store = pg
		b.closers = append(b.closers, pg.Close)

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	logging.OrDiscard(logger).WithField("store", cfg.Store).Info("store opened")
	return b, nil
}

// Close releases the backend in the order it was opened.
func (b *Backend) Close() {
	for _, c := range b.closers {
		c()
	}
}

// Services is the wired core.
type Services struct {
	Audit     *service.AuditLog
	Visitors  *service.VisitorService
	Requests  *service.ChangeRequestService
	Approvals *service.ApprovalService
	Checker   *service.ConsistencyChecker
	Metrics   *metrics.Metrics
}

// NewServices wires every service over st. A nil reg skips metrics
// registration.
func NewServices(st store.Store, logger logrus.FieldLogger, reg prometheus.Registerer) Services {
	opts := service.Options{Logger: logger, Metrics: metrics.New(reg)}
	audit := service.NewAuditLog(st, opts)
	visitors := service.NewVisitorService(st, audit, opts)
	return Services{
		Audit:     audit,
		Visitors:  visitors,
		Requests:  service.NewChangeRequestService(st, opts),
		Approvals: service.NewApprovalService(st, visitors, audit, opts),
		Checker:   service.NewConsistencyChecker(st, opts),
		Metrics:   opts.Metrics,
	}
}
