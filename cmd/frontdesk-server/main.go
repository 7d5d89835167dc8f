package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/app"
	"github.com/zhank48/ultfpeb-sub004/internal/config"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/grpcapi"
	"github.com/zhank48/ultfpeb-sub004/internal/httpapi"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel).WithField("app", "frontdesk-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc := app.NewServices(backend.Store, logger, reg)

	// gRPC health
	grpcSrv := grpcapi.NewServer(cfg.GRPCAddr, logger)
	prober := grpcapi.NewProber(grpcSrv, grpcapi.ServiceStore, grpcapi.StoreProbe(backend.Store),
		time.Duration(cfg.HealthIntervalSeconds)*time.Second, logger)
	prober.Start(ctx)
	defer prober.Stop()

	// Background consistency scan
	monitor := service.NewConsistencyMonitor(svc.Checker, service.MonitorConfig{
		IntervalSeconds: cfg.ScanIntervalSeconds,
		OnResult: func(_ types.ScanReport, err error) {
			grpcSrv.SetServing(grpcapi.ServiceConsistency, err == nil)
		},
	}, logger)
	monitor.Start(ctx)
	defer monitor.Stop()
	if cfg.ScanIntervalSeconds == 0 {
		grpcSrv.SetServing(grpcapi.ServiceConsistency, true)
	}

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.HTTPAddr,
		Env:        cfg.Env,
		JWTSecret:  cfg.JWTSecret,
		AdminRoles: cfg.AdminRoles,
		Policy: types.CheckInPolicy{
			RequirePhoto:     cfg.RequirePhoto,
			RequireSignature: cfg.RequireSignature,
		},
		Metrics:   svc.Metrics,
		Gatherer:  reg,
		Visitors:  svc.Visitors,
		Requests:  svc.Requests,
		Approvals: svc.Approvals,
		Audit:     svc.Audit,
		Checker:   svc.Checker,
	})

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server error")
			stop()
		}
	}()
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.WithError(err).Error("grpc server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	grpcSrv.Shutdown(shutdownCtx)
	_ = srv.Shutdown(shutdownCtx)
}
