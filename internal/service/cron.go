package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/replyrota/replyrota/internal/biz/usecase"
)

// lastDigestKey is the state key holding the date the daily reminders last
// ran, as YYYY-MM-DD in the bot's timezone.
const lastDigestKey = "last_daily_digest_date"

// CronRunner drives the bot's recurring work: the polling cycle every
// interval, the registration sweep, and the daily posting reminders once
// the configured local time has passed.
type CronRunner struct {
	poller    *Poller
	collector *Collector
	digest    *usecase.DigestUsecase

	loc          *time.Location
	dailyHour    int
	dailyMinute  int
	pollInterval time.Duration
	dryRun       bool
	now          func() time.Time

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewCronRunner creates a new cron runner
func NewCronRunner(
	poller *Poller,
	collector *Collector,
	digest *usecase.DigestUsecase,
	loc *time.Location,
	dailyHour, dailyMinute int,
	pollInterval time.Duration,
	dryRun bool,
) *CronRunner {
	return &CronRunner{
		poller:       poller,
		collector:    collector,
		digest:       digest,
		loc:          loc,
		dailyHour:    dailyHour,
		dailyMinute:  dailyMinute,
		pollInterval: pollInterval,
		dryRun:       dryRun,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start starts the cron runner
func (r *CronRunner) Start() {
	if r.running {
		return
	}
	r.running = true
	r.wg.Add(1)
	go r.loop()
	fmt.Printf("[CronRunner] Started with poll interval %v\n", r.pollInterval)
}

// Stop stops the cron runner
func (r *CronRunner) Stop() {
	if !r.running {
		return
	}
	r.running = false
	close(r.stopCh)
	r.wg.Wait()
	fmt.Println("[CronRunner] Stopped")
}

func (r *CronRunner) loop() {
	defer r.wg.Done()

	// Initial run
	r.runOnce()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runOnce()
		case <-r.stopCh:
			return
		}
	}
}

// runOnce executes one tick: registrations, daily reminders if due, then
// the polling cycle
func (r *CronRunner) runOnce() {
	ctx := context.Background()

	if r.collector != nil {
		if _, err := r.collector.ProcessUpdates(ctx); err != nil {
			fmt.Printf("[CronRunner] Registration sweep failed: %v\n", err)
		}
	}

	r.runDailyDigest(ctx)

	stats, err := r.poller.RunCycle(ctx)
	if err != nil {
		fmt.Printf("[CronRunner] Cycle failed: %v\n", err)
		return
	}
	fmt.Printf("[CronRunner] Cycle complete: posts=%d new_comments=%d dispatched=%d escalated=%d\n",
		stats.PostsPolled, stats.NewComments, stats.Dispatched, stats.Escalated)
}

// runDailyDigest sends the posting reminders at most once per local day,
// after the configured hour and minute
func (r *CronRunner) runDailyDigest(ctx context.Context) {
	now := r.now().In(r.loc)
	today := now.Format("2006-01-02")

	if now.Hour() < r.dailyHour || (now.Hour() == r.dailyHour && now.Minute() < r.dailyMinute) {
		return
	}

	lastRun, err := r.poller.state.Get(ctx, lastDigestKey)
	if err != nil {
		fmt.Printf("[CronRunner] Could not read digest state: %v\n", err)
		return
	}
	if lastRun == today {
		return
	}

	count, err := r.digest.SendDailyReminders(ctx, today)
	if err != nil {
		fmt.Printf("[CronRunner] Daily reminders failed: %v\n", err)
		return
	}
	fmt.Printf("[CronRunner] Daily reminders sent: %d\n", count)

	if !r.dryRun {
		if err := r.poller.state.Set(ctx, lastDigestKey, today); err != nil {
			fmt.Printf("[CronRunner] Could not record digest run: %v\n", err)
		}
	}
}
