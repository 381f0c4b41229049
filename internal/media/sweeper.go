package media

import (
	"context"
	"fmt"
	"time"

	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper runs CleanupOrphans for every institution on a fixed interval.
// It reads the same collections requests mutate without coordination, so an
// attachment uploaded but not yet referenced can be swept if a pass lands in
// between.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	cron     *cron.Cron
}

func NewSweeper(m *Manager, interval time.Duration) *Sweeper {
	return &Sweeper{manager: m, interval: interval}
}

// RunOnce sweeps all institutions and returns the total removed. A failing
// institution is logged and skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.manager.store.Institutions(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		n, err := s.manager.CleanupOrphans(ctx, id)
		if err != nil {
			logger.Warnf("media: cleanup %s failed: %v", id, err)
			continue
		}
		total += n
	}
	return total, nil
}

// Start schedules the sweep. A non-positive interval disables it.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		logger.Info("media: orphan cleanup disabled")
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Errorf("media: orphan cleanup: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	c.Start()
	s.cron = c
	logger.Infof("media: orphan cleanup every %s", s.interval)
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
