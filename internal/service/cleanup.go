package service

import (
	"log"
	"os"
	"sync"
	"time"
)

// Cleaner deletes transient request files after a delay. Deletion is best
// effort: failures are logged and never retried.
type Cleaner struct {
	delay time.Duration
	wg    sync.WaitGroup

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewCleaner creates a Cleaner that waits delay before deleting.
func NewCleaner(delay time.Duration) *Cleaner {
	if delay < 0 {
		delay = 0
	}
	return &Cleaner{delay: delay, timers: make(map[*time.Timer]struct{})}
}

// Schedule arms a deletion of paths. Files and directories are both accepted;
// empty paths are ignored. It never blocks.
func (c *Cleaner) Schedule(paths ...string) {
	targets := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			targets = append(targets, p)
		}
	}
	if len(targets) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		go removeAll(targets)
		return
	}

	c.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(c.delay, func() {
		defer c.wg.Done()
		c.mu.Lock()
		delete(c.timers, t)
		c.mu.Unlock()
		removeAll(targets)
	})
	c.timers[t] = struct{}{}
}

// Flush runs every pending deletion now and waits for all of them to finish.
// Later Schedule calls delete immediately.
func (c *Cleaner) Flush() {
	c.mu.Lock()
	c.stopped = true
	var pending []*time.Timer
	for t := range c.timers {
		pending = append(pending, t)
	}
	c.mu.Unlock()

	for _, t := range pending {
		// A timer that already fired is running its callback; Wait covers it.
		if t.Stop() {
			t.Reset(0)
		}
	}
	c.Wait()
}

// Wait blocks until every scheduled deletion has run.
func (c *Cleaner) Wait() {
	c.wg.Wait()
}

func removeAll(paths []string) {
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			log.Printf("cleaner: removing %s: %v", p, err)
		}
	}
}
