// Package scheduler runs recurring maintenance tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/skilltree/skilltheme/internal/observability"
)

// parser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as @hourly or @every 10m.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	expr     string
	schedule cron.Schedule
	run      TaskFunc
}

// Scheduler runs registered tasks whenever their schedule comes due. A run
// that is still in progress when the next one comes due delays it rather
// than overlapping it.
type Scheduler struct {
	mu     sync.RWMutex
	tasks  []task
	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		logger: slog.Default(),
		now:    time.Now,
	}
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = observability.WithComponent(logger, "scheduler")
	return s
}

// ValidateCron validates a cron expression.
func ValidateCron(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Add registers fn to run on the schedule expr.
func (s *Scheduler) Add(name, expr string, fn TaskFunc) error {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("task %s: invalid cron expression %q: %w", name, expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			return fmt.Errorf("task %s already registered", name)
		}
	}
	s.tasks = append(s.tasks, task{name: name, expr: expr, schedule: schedule, run: fn})
	return nil
}

// NextRun returns when the named task runs next.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.name == name {
			return t.schedule.Next(s.now()), true
		}
	}
	return time.Time{}, false
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Run runs every task on its schedule until ctx is done. Task errors are
// logged; the schedule continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.RLock()
	tasks := make([]task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.RUnlock()

	if len(tasks) == 0 {
		<-ctx.Done()
		return nil
	}

	s.logger.InfoContext(ctx, "scheduler started", slog.Int("tasks", len(tasks)))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			s.loop(gctx, t)
			return nil
		})
	}
	err := g.Wait()

	s.logger.Info("scheduler stopped")
	return err
}

func (s *Scheduler) loop(ctx context.Context, t task) {
	for {
		next := t.schedule.Next(s.now())
		s.logger.DebugContext(ctx, "task scheduled",
			slog.String("task", t.name),
			slog.Time("next_run", next),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.execute(ctx, t)
	}
}

func (s *Scheduler) execute(ctx context.Context, t task) {
	var err error
	done := observability.TimedOperationWithError(ctx, s.logger.With(slog.String("task", t.name)), "scheduled_task", &err)
	defer done()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	err = t.run(ctx)
}
