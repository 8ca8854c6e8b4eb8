package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telofy/internal/bot"
	"telofy/internal/service"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	var telegramBot *bot.Bot
	if a.cfg.BotEnabled() {
		svc := bot.Services{
			Tasks:      a.tasks,
			Objectives: a.objectives,
			Status:     a.status,
			Reminders:  a.reminders,
		}
		if a.sync != nil {
			svc.Sync = a.sync
		}
		var err error
		telegramBot, err = bot.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, svc, a.logger("[bot] "))
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	scheduler := service.NewSchedulerService(a.stores.Settings.Location(), a.logger("[scheduler] "))
	if err := a.schedule(ctx, scheduler, telegramBot); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if a.sync != nil {
		unsubscribe := a.sync.Subscribe(func(st service.SyncState) {
			if st.Status == service.SyncError {
				log.Printf("[warn] sync state: %s (%s)", st.Status, st.Error)
			}
		})
		defer unsubscribe()
		go a.sync.SyncAll(ctx)
	}

	log.Println("telofy started.")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped with error: %w", err)
		}
	} else {
		<-ctx.Done()
	}
	log.Println("Shutdown complete.")
	return nil
}

func (a *app) schedule(ctx context.Context, scheduler *service.SchedulerService, telegramBot *bot.Bot) error {
	if a.sync != nil {
		if _, err := scheduler.ScheduleInterval("sync", a.cfg.SyncInterval, func() {
			a.sync.SyncAll(ctx)
		}); err != nil {
			return err
		}
	}

	if _, err := scheduler.ScheduleInterval("overdue-sweep", a.cfg.OverdueSweepInterval, func() {
		swept := a.tasks.SweepOverdue(time.Now())
		if len(swept) == 0 || telegramBot == nil || !a.reminders.ShouldNotify(time.Now()) {
			return
		}
		for _, t := range swept {
			if err := telegramBot.Notify(fmt.Sprintf("⚠️ Missed: %s", t.Title)); err != nil {
				log.Printf("[warn] notify overdue %s: %v", t.ID, err)
			}
		}
	}); err != nil {
		return err
	}

	if _, err := scheduler.ScheduleDaily("snapshot", a.cfg.SnapshotTime, func() {
		added := a.reminders.SnapshotDay(time.Now())
		log.Printf("[info] recorded %d daily statuses", len(added))
	}); err != nil {
		return err
	}

	if telegramBot != nil && a.cfg.ReportInterval() > 0 {
		if _, err := scheduler.ScheduleInterval("report", a.cfg.ReportInterval(), func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendReport(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[warn] report: %v", err)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}
