package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
)

// ConsistencyMonitor runs the consistency checker on a fixed interval in a
// background goroutine. It only reads and reports; it never repairs.
//
// An interval of 0 disables the monitor.
type ConsistencyMonitor struct {
	checker  *ConsistencyChecker
	interval time.Duration
	onResult func(types.ScanReport, error)
	logger   logrus.FieldLogger
	cancel   context.CancelFunc
	done     chan struct{}
}

// MonitorConfig holds the parameters for NewConsistencyMonitor.
type MonitorConfig struct {
	// IntervalSeconds is how often a scan runs. 0 disables the monitor.
	IntervalSeconds int

	// OnResult, if set, receives every scan outcome. The server uses it to
	// drive its health status.
	OnResult func(types.ScanReport, error)
}

// NewConsistencyMonitor creates a monitor but does not start it.
func NewConsistencyMonitor(c *ConsistencyChecker, cfg MonitorConfig, logger logrus.FieldLogger) *ConsistencyMonitor {
	return &ConsistencyMonitor{
		checker:  c,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		onResult: cfg.OnResult,
		logger:   logging.OrDiscard(logger),
		done:     make(chan struct{}),
	}
}

// Start runs one scan immediately, then repeats on the interval until ctx is
// cancelled or Stop is called.
func (m *ConsistencyMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("consistency monitor disabled (interval=0)")
		close(m.done)
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)

	m.logger.WithField("interval", m.interval.String()).Info("consistency monitor started")
}

// Stop signals the monitor to exit and waits for it to finish.
func (m *ConsistencyMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *ConsistencyMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.run(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.run(ctx)
		}
	}
}

func (m *ConsistencyMonitor) run(ctx context.Context) {
	rep, err := m.checker.Report(ctx)
	if err != nil && ctx.Err() == nil {
		m.logger.WithError(err).Error("consistency scan failed")
	}
	if m.onResult != nil && ctx.Err() == nil {
		m.onResult(rep, err)
	}
}
