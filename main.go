package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/replyrota/replyrota/internal/biz/repo"
	"github.com/replyrota/replyrota/internal/biz/usecase"
	"github.com/replyrota/replyrota/internal/conf"
	"github.com/replyrota/replyrota/internal/data"
	"github.com/replyrota/replyrota/internal/server"
	"github.com/replyrota/replyrota/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "daemon", "run mode: check, collect-ids, once, daemon")
	dryRun := flag.Bool("dry-run", false, "print outbound messages instead of sending, skip all writes")
	promptsPath := flag.String("prompts", "", "path to prompts.yaml (optional)")
	flag.Parse()

	if *promptsPath == "" {
		*promptsPath = os.Getenv("PROMPTS_CONFIG_PATH")
	}

	cfg := conf.LoadFromEnv()
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	prompts, err := conf.LoadPromptsConfig(*promptsPath)
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}
	cfg.Prompts = prompts

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Schedule.Timezone, err)
	}

	ctx := context.Background()

	sheetsClient, err := data.NewSheetsClient(ctx, cfg.Sheets)
	if err != nil {
		log.Fatalf("Failed to create sheets client: %v", err)
	}
	if err := sheetsClient.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure sheet schema: %v", err)
	}
	schedule := data.NewScheduleRepo(sheetsClient)

	var state repo.StateRepo
	switch cfg.State.Backend {
	case "sqlite":
		state, err = data.NewSQLiteStateRepo(cfg.State.DBPath)
		if err != nil {
			log.Fatalf("Failed to open state db: %v", err)
		}
	default:
		state = data.NewSheetStateRepo(sheetsClient)
	}
	defer state.Close()

	msgs, err := data.NewMessageRepo(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatalf("Failed to create telegram client: %v", err)
	}

	forum := data.NewForumRepo(cfg.Reddit)
	drafter := data.NewDraftRepo(cfg.OpenAI, cfg.Prompts)
	draft := usecase.NewDraftUsecase(drafter)
	digest := usecase.NewDigestUsecase(schedule, msgs, cfg.AdminMember, cfg.DryRun)
	collector := service.NewCollector(schedule, state, msgs, cfg.DryRun)
	poller := service.NewPoller(schedule, state, forum, msgs, draft,
		cfg.AdminMember, cfg.SeenRetention(), cfg.DryRun)

	switch *mode {
	case "check":
		checker := service.NewChecker(schedule, state, msgs, drafter, cfg)
		if failures := checker.RunAll(ctx); failures > 0 {
			os.Exit(1)
		}
		return

	case "collect-ids":
		linked, err := collector.ProcessUpdates(ctx)
		if err != nil {
			log.Fatalf("Failed to process updates: %v", err)
		}
		fmt.Printf("Linked %d member(s)\n", linked)
		return

	case "once":
		if _, err := collector.ProcessUpdates(ctx); err != nil {
			fmt.Printf("Registration sweep failed: %v\n", err)
		}
		stats, err := poller.RunCycle(ctx)
		if err != nil {
			log.Fatalf("Cycle failed: %v", err)
		}
		fmt.Printf("Run complete: posts=%d new_comments=%d dispatched=%d escalated=%d\n",
			stats.PostsPolled, stats.NewComments, stats.Dispatched, stats.Escalated)
		return

	case "daemon":
		runner := service.NewCronRunner(poller, collector, digest, loc,
			cfg.Schedule.DailyHour, cfg.Schedule.DailyMinute, cfg.PollInterval(), cfg.DryRun)

		if cfg.AdminAddr != "" {
			admin := server.NewAdminServer(poller)
			go func() {
				if err := admin.Run(cfg.AdminAddr); err != nil {
					log.Fatalf("Admin server error: %v", err)
				}
			}()
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		fmt.Printf("Starting reply rotation bot (poll every %v, tz %s)...\n",
			cfg.PollInterval(), cfg.Schedule.Timezone)
		runner.Start()

		<-sigCh
		fmt.Println("\nShutting down...")
		runner.Stop()
		return

	default:
		log.Fatalf("Unknown mode %q (want check, collect-ids, once or daemon)", *mode)
	}
}
