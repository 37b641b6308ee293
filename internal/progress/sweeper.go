package progress

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Sweepable is implemented by stores that can drop expired snapshots.
type Sweepable interface {
	Sweep(ctx context.Context) (int, error)
}

// Sweeper periodically removes snapshots that fell out of the freshness
// window, so abandoned sessions do not accumulate on disk.
type Sweeper struct {
	cron   *cron.Cron
	store  Sweepable
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweeper(store Sweepable) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		cron:   cron.New(),
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@hourly", func() {
		removed, err := s.store.Sweep(s.ctx)
		if err != nil {
			log.Printf("progress sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("progress sweep removed %d expired snapshot(s)", removed)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.cancel()
}
