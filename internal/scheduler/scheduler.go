package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultModelWatchSpec = "@every 5m"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	checkModelTimeout     = 10 * time.Second
)

// Pinger probes the model service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gauge records the probe result; *telemetry.Metrics implements it.
type Gauge interface {
	SetModelUp(up bool)
}

// Scheduler periodically probes the model service and logs availability
// changes. Request handling never reads its state.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	pinger Pinger
	gauge  Gauge
	log    *slog.Logger

	mu    sync.Mutex
	known bool
	up    bool
}

func New(ctx context.Context, spec string, pinger Pinger, gauge Gauge, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	if spec == "" {
		spec = DefaultModelWatchSpec
	}

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   spec,
		pinger: pinger,
		gauge:  gauge,
		log:    log,
	}
}

func (s *Scheduler) Spec() string {
	return s.spec
}

// Start runs one probe immediately and then on the configured schedule.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.checkModel); err != nil {
		return fmt.Errorf("add model watch %q: %w", s.spec, err)
	}

	go s.checkModel()

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) checkModel() {
	ctx, cancel := context.WithTimeout(s.ctx, checkModelTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	err := s.pinger.Ping(ctx)
	up := err == nil

	if s.gauge != nil {
		s.gauge.SetModelUp(up)
	}

	s.mu.Lock()
	changed := !s.known || s.up != up
	s.known, s.up = true, up
	s.mu.Unlock()

	if !changed {
		s.log.DebugContext(ctx, "Model service state is unchanged",
			"up", up)
		return
	}

	if up {
		s.log.InfoContext(ctx, "Model service is available")
		return
	}

	s.log.WarnContext(ctx, "Model service is unavailable",
		"error", err)
}

// state reports the last observed availability; ok is false before the first probe.
func (s *Scheduler) state() (up bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.up, s.known
}
