package bot

import (
	"log"
	"sync"
	"time"

	"modbot/scanner"
)

// Scheduler owns the background reconciliation goroutine.
type Scheduler struct {
	reconciler *scanner.Reconciler
	interval   time.Duration
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewScheduler(reconciler *scanner.Reconciler, interval time.Duration, done chan struct{}) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		done:       done,
	}
}

// Start launches the reconciliation loop. The loop gates on nothing here:
// the Bot only constructs the Scheduler once the session is ready.
func (s *Scheduler) Start() {
	ready := make(chan struct{})
	close(ready)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reconciler.Run(s.interval, ready, s.done)
	}()
}

// Stop waits for the reconciliation loop to exit. The done channel is closed
// by the owning Bot.
func (s *Scheduler) Stop() {
	s.wg.Wait()
	log.Println("Scheduler stopped.")
}
