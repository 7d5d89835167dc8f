package grpcapi

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
)

// ProbeFunc returns nil when the dependency is healthy.
type ProbeFunc func(ctx context.Context) error

// StoreProbe runs a one-row read against st.
func StoreProbe(st store.Store) ProbeFunc {
	return func(ctx context.Context) error {
		return st.View(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := tx.ListVisitors(ctx, store.VisitorFilter{IncludeDeleted: true, Limit: 1})
			return err
		})
	}
}

// Prober periodically runs a probe and publishes the result as the serving
// status of one health service.
type Prober struct {
	server   *Server
	service  string
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewProber(s *Server, service string, probe ProbeFunc, interval time.Duration, logger logrus.FieldLogger) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Prober{
		server:   s,
		service:  service,
		probe:    probe,
		interval: interval,
		timeout:  timeout,
		logger:   logging.OrDiscard(logger),
		done:     make(chan struct{}),
	}
}

// Start probes once synchronously, then on every tick until Stop.
func (p *Prober) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.run(ctx)
	go p.loop(ctx)
}

// Stop cancels the loop and waits for it to exit.
func (p *Prober) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

func (p *Prober) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Prober) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.probe(ctx)
	if err != nil {
		p.logger.WithField("service", p.service).WithError(err).Warn("health probe failed")
	}
	p.server.SetServing(p.service, err == nil)
}
