package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically expires idle conversations, mirroring the page
// timeout of the hosting framework: once a participant stops producing
// events, the conversation is torn down and in-flight completions are
// discarded.
type Sweeper struct {
	cron    *cron.Cron
	maxIdle time.Duration
	expire  func(maxIdle time.Duration) int
}

func New(maxIdle time.Duration, expire func(maxIdle time.Duration) int) *Sweeper {
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		maxIdle: maxIdle,
		expire:  expire,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		if n := s.expire(s.maxIdle); n > 0 {
			log.Printf("retention sweep expired %d conversation(s)", n)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("retention sweep started (idle timeout %s)", s.maxIdle)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Printf("retention sweep stopped")
}
