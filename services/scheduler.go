package services

import (
	"context"
	"sync"
	"time"

	"milkrun-backend/config"

	"go.uber.org/zap"
)

// Scheduler drives the recurring jobs: nightly route generation for the
// next day, daily subscription expansion, weekly/monthly invoice batches,
// overdue marking, and route cleanup. Jobs are independent; a panic or
// error in one is logged and never stops the loop or the other jobs. Every
// job also has a synchronous admin-triggered equivalent hitting the same
// function.
type Scheduler struct {
	Cfg       config.Config
	Log       *zap.Logger
	Generator *RouteGenerator
	Biller    *Biller
	Expander  *Expander

	// CheckInterval defaults to one minute.
	CheckInterval time.Duration

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]string // job name -> date it last ran for
}

// NewScheduler builds a scheduler with the default check interval.
func NewScheduler(cfg config.Config, log *zap.Logger, gen *RouteGenerator, bill *Biller, exp *Expander) *Scheduler {
	return &Scheduler{
		Cfg:           cfg,
		Log:           log,
		Generator:     gen,
		Biller:        bill,
		Expander:      exp,
		CheckInterval: time.Minute,
	}
}

type job struct {
	name string
	hour int
	// due gates beyond the hour match (weekday/day-of-month checks).
	due func(now time.Time) bool
	run func(now time.Time) error
}

// Start launches the check loop. Safe to call once; a second call is a
// no-op while running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	if s.lastRun == nil {
		s.lastRun = make(map[string]string)
	}
	if s.CheckInterval == 0 {
		s.CheckInterval = time.Minute
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)
	s.Log.Info("scheduler started")
}

// Stop halts the loop and waits for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.Log.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick runs every due job whose hour has arrived and which has not already
// run for today.
func (s *Scheduler) tick(now time.Time) {
	always := func(time.Time) bool { return true }
	jobs := []job{
		{
			name: "expand_deliveries", hour: s.Cfg.ExpansionHour, due: always,
			run: func(now time.Time) error {
				_, err := s.Expander.ExpandDeliveries(now.AddDate(0, 0, 1))
				return err
			},
		},
		{
			name: "generate_routes", hour: s.Cfg.RouteGenHour, due: always,
			run: func(now time.Time) error {
				_, err := s.Generator.GenerateRoutes(now.AddDate(0, 0, 1))
				return err
			},
		},
		{
			name: "weekly_invoices", hour: s.Cfg.InvoiceHour,
			due: func(now time.Time) bool { return now.Weekday() == time.Monday },
			run: func(now time.Time) error {
				s.Biller.GenerateWeeklyInvoices(now)
				return nil
			},
		},
		{
			name: "monthly_invoices", hour: s.Cfg.InvoiceHour,
			due: func(now time.Time) bool { return now.Day() == 1 },
			run: func(now time.Time) error {
				s.Biller.GenerateMonthlyInvoices(now)
				return nil
			},
		},
		{
			name: "mark_overdue", hour: s.Cfg.OverdueHour, due: always,
			run: func(now time.Time) error {
				_, err := s.Biller.MarkOverdueInvoices(now)
				return err
			},
		},
		{
			name: "cleanup_routes", hour: s.Cfg.CleanupHour, due: always,
			run: func(now time.Time) error {
				_, err := s.Expander.CleanupOldRoutes(now, s.Cfg.CleanupRetainDays)
				return err
			},
		},
	}

	today := now.Format("2006-01-02")
	for _, j := range jobs {
		if now.Hour() != j.hour || !j.due(now) {
			continue
		}
		s.mu.Lock()
		ran := s.lastRun[j.name] == today
		if !ran {
			s.lastRun[j.name] = today
		}
		s.mu.Unlock()
		if ran {
			continue
		}
		s.runJob(j, now)
	}
}

func (s *Scheduler) runJob(j job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("scheduled job panicked",
				zap.String("job", j.name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := j.run(now); err != nil {
		s.Log.Error("scheduled job failed",
			zap.String("job", j.name), zap.Error(err))
		return
	}
	s.Log.Info("scheduled job finished",
		zap.String("job", j.name), zap.Duration("took", time.Since(start)))
}
