package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/conf"
)

// CheckResult is the outcome of one collaborator check
type CheckResult struct {
	Name    string
	OK      bool
	Message string
}

// Checker verifies connectivity to every external collaborator before the
// bot is trusted to run. Each check is independent; a failure never stops
// the remaining checks.
type Checker struct {
	schedule repo.ScheduleRepo
	state    repo.StateRepo
	msgs     repo.MessageRepo
	drafts   repo.DraftRepo
	cfg      *conf.Config
}

// NewChecker creates a new checker
func NewChecker(schedule repo.ScheduleRepo, state repo.StateRepo, msgs repo.MessageRepo, drafts repo.DraftRepo, cfg *conf.Config) *Checker {
	return &Checker{schedule: schedule, state: state, msgs: msgs, drafts: drafts, cfg: cfg}
}

// RunAll runs every check and prints a PASS/FAIL report. Returns the
// number of failures.
func (c *Checker) RunAll(ctx context.Context) int {
	results := []CheckResult{
		c.checkTelegram(ctx),
		c.checkSheets(ctx),
		c.checkReddit(ctx),
		c.checkDrafter(ctx),
		c.checkState(ctx),
	}

	failures := 0
	fmt.Println("\nAPI Setup Check Results")
	fmt.Println(strings.Repeat("-", 40))
	for _, r := range results {
		status := "PASS"
		if !r.OK {
			status = "FAIL"
			failures++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}
	fmt.Println(strings.Repeat("-", 40))
	return failures
}

func (c *Checker) checkTelegram(ctx context.Context) CheckResult {
	me, err := c.msgs.Me(ctx)
	if err != nil {
		return CheckResult{Name: "telegram", Message: fmt.Sprintf("Telegram FAILED: %v", err)}
	}
	return CheckResult{
		Name: "telegram", OK: true,
		Message: fmt.Sprintf("Telegram OK: @%s (id=%d)", me.Username, me.ID),
	}
}

func (c *Checker) checkSheets(ctx context.Context) CheckResult {
	roster, err := c.schedule.Roster(ctx)
	if err != nil {
		return CheckResult{Name: "sheets", Message: fmt.Sprintf("Google Sheets FAILED: %v", err)}
	}
	plan, err := c.schedule.PostingPlan(ctx)
	if err != nil {
		return CheckResult{Name: "sheets", Message: fmt.Sprintf("Google Sheets FAILED: %v", err)}
	}
	return CheckResult{
		Name: "sheets", OK: true,
		Message: fmt.Sprintf("Google Sheets OK: teams=%d, posting_plan=%d", len(roster), len(plan)),
	}
}

// checkReddit fetches a public listing to verify unauthenticated JSON
// access works from this host
func (c *Checker) checkReddit(ctx context.Context) CheckResult {
	testURL := strings.TrimRight(c.cfg.Reddit.BaseURL, "/") + "/r/MachineLearning/hot.json?limit=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		return CheckResult{Name: "reddit", Message: fmt.Sprintf("Reddit FAILED: %v", err)}
	}
	req.Header.Set("User-Agent", c.cfg.Reddit.UserAgent)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return CheckResult{Name: "reddit", Message: fmt.Sprintf("Reddit FAILED: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckResult{Name: "reddit", Message: fmt.Sprintf("Reddit FAILED: status %d", resp.StatusCode)}
	}
	return CheckResult{
		Name: "reddit", OK: true,
		Message: "Reddit OK: public JSON access verified on r/MachineLearning",
	}
}

// checkDrafter asks the completion endpoint for a trivial draft to verify
// the API key and model name
func (c *Checker) checkDrafter(ctx context.Context) CheckResult {
	if c.drafts == nil {
		return CheckResult{
			Name: "openai", OK: true,
			Message: "OpenAI SKIPPED: no API key configured, replies will use the fallback text",
		}
	}
	postCtx := &repo.PostContext{Title: "Connectivity check", Body: "Reply with a single word."}
	comment := domain.Comment{ID: "probe", Author: "checker", Body: "ping"}
	text, err := c.drafts.Suggest(ctx, postCtx, comment, nil)
	if err != nil {
		return CheckResult{Name: "openai", Message: fmt.Sprintf("OpenAI FAILED: %v", err)}
	}
	return CheckResult{
		Name: "openai", OK: true,
		Message: fmt.Sprintf("OpenAI OK: model %s responded (%d chars)", c.cfg.OpenAI.Model, len(text)),
	}
}

// checkState round-trips a probe value through the configured state store
func (c *Checker) checkState(ctx context.Context) CheckResult {
	probe := fmt.Sprintf("%d", time.Now().Unix())
	if err := c.state.Set(ctx, "healthcheck_probe", probe); err != nil {
		return CheckResult{Name: "state", Message: fmt.Sprintf("State store FAILED: %v", err)}
	}
	got, err := c.state.Get(ctx, "healthcheck_probe")
	if err != nil {
		return CheckResult{Name: "state", Message: fmt.Sprintf("State store FAILED: %v", err)}
	}
	if got != probe {
		return CheckResult{Name: "state", Message: fmt.Sprintf("State store FAILED: wrote %q, read %q", probe, got)}
	}
	return CheckResult{
		Name: "state", OK: true,
		Message: fmt.Sprintf("State store OK: backend=%s round-trip verified", c.cfg.State.Backend),
	}
}
