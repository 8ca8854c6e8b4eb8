package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telofy/internal/model"
	"telofy/internal/service"
)

const (
	menuLabelTasks  = "📋 Tasks"
	menuLabelStatus = "📊 Status"
	menuLabelSync   = "🔄 Sync"
	menuLabelHelp   = "ℹ️ Help"
)

const helpText = "ℹ️ Commands\n" +
	"• /tasks - today's tasks\n" +
	"• /start_task <n|id> - start a task\n" +
	"• /done <n|id> - mark a task completed\n" +
	"• /skip <n|id> [reason] - skip a task\n" +
	"• /status - objective status and open deviations\n" +
	"• /resolve <deviation id> - resolve a deviation\n" +
	"• /pause, /resume, /recalibrate - active objective\n" +
	"• /sync - sync with the remote store\n" +
	"• /report - daily report\n" +
	"• /help - this message\n\n" +
	"<n> is the task number from /tasks."

// Syncer triggers a full reconciliation.
type Syncer interface {
	SyncAll(ctx context.Context) service.SyncResult
	State() service.SyncState
}

// Services are the planner services the bot drives. Sync may be nil when
// remote sync is disabled.
type Services struct {
	Sync       Syncer
	Tasks      *service.TaskService
	Objectives *service.ObjectiveService
	Status     *service.StatusService
	Reminders  *service.ReminderService
}

// Bot exposes the planner over Telegram to a single chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	svc    Services
	logger *log.Logger
	now    func() time.Time
}

func New(token string, chatID int64, svc Services, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, chatID, svc, logger)
	b.logger.Printf("[info] bot authorized on account %s", api.Self.UserName)
	return b, nil
}

func newBot(api *tgbotapi.BotAPI, chatID int64, svc Services, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.New(os.Stderr, "[bot] ", log.LstdFlags)
	}
	return &Bot{api: api, chatID: chatID, svc: svc, logger: logger, now: time.Now}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.logger.Printf("[warn] handle message: %v", err)
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat.ID != b.chatID {
		b.logger.Printf("[warn] ignoring message from chat %d", msg.Chat.ID)
		return nil
	}

	command, args := msg.Command(), strings.TrimSpace(msg.CommandArguments())
	if !msg.IsCommand() {
		var ok bool
		if command, ok = menuAlias(msg.Text); !ok {
			return b.sendText("I did not get that. Try /help.")
		}
	}
	b.logger.Printf("[info] command /%s %s", command, args)
	return b.sendText(b.execute(ctx, command, args))
}

// execute runs one command and returns the reply text.
func (b *Bot) execute(ctx context.Context, command, args string) string {
	switch command {
	case "start", "help":
		return helpText
	case "tasks":
		return b.taskList()
	case "start_task":
		return b.withTask(args, func(t model.Task, _ string) (string, error) {
			started, err := b.svc.Tasks.StartTask(t.ID)
			return fmt.Sprintf("⏳ Started «%s».", started.Title), err
		})
	case "done":
		return b.withTask(args, func(t model.Task, _ string) (string, error) {
			done, err := b.svc.Tasks.CompleteTask(t.ID)
			return fmt.Sprintf("✅ «%s» completed.", done.Title), err
		})
	case "skip":
		return b.withTask(args, func(t model.Task, reason string) (string, error) {
			skipped, err := b.svc.Tasks.SkipTask(t.ID, reason)
			return fmt.Sprintf("⏭ «%s» skipped.", skipped.Title), err
		})
	case "status":
		return b.statusText()
	case "resolve":
		if args == "" {
			return "Give a deviation id: /resolve <id>"
		}
		status := b.svc.Status.ResolveDeviation(args)
		return fmt.Sprintf("Deviation resolved. Status: %s", status)
	case "pause":
		return b.withActiveObjective(b.svc.Objectives.Pause, "⏸ Objective paused.")
	case "resume":
		return b.withActiveObjective(b.svc.Objectives.Resume, "▶️ Objective resumed.")
	case "recalibrate":
		return b.withActiveObjective(b.svc.Objectives.Recalibrate, "🟡 Objective is recalibrating.")
	case "sync":
		return b.runSync(ctx)
	case "report":
		return b.svc.Reminders.DailySummary(b.now())
	default:
		return "Unknown command. See /help."
	}
}

// SendReport pushes the daily report to the configured chat unless quiet
// hours are active.
func (b *Bot) SendReport(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := b.now()
	if !b.svc.Reminders.ShouldNotify(now) {
		b.logger.Println("[info] report suppressed by notification settings")
		return nil
	}
	return b.sendText(b.svc.Reminders.DailySummary(now))
}

// Notify sends text to the configured chat.
func (b *Bot) Notify(text string) error {
	return b.sendText(text)
}

func (b *Bot) taskList() string {
	tasks := b.svc.Tasks.TasksForDate(b.now())
	if len(tasks) == 0 {
		return "Nothing scheduled for today."
	}
	var sb strings.Builder
	sb.WriteString("📋 Today\n")
	for i, t := range tasks {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s %s\n", i+1, t.Status, t.ScheduledAt.In(b.now().Location()).Format("15:04"), shortTitle(t.Title, 48)))
	}
	return strings.TrimSpace(sb.String())
}

func (b *Bot) statusText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Status: %s\n", b.svc.Status.CurrentStatus()))
	if o, err := b.svc.Objectives.Active(); err == nil {
		sb.WriteString(fmt.Sprintf("🎯 %s\n", o.Name))
	}
	open := b.svc.Status.Unresolved()
	sb.WriteString(fmt.Sprintf("⚠️ Open deviations: %d\n", len(open)))
	for _, d := range open {
		sb.WriteString(fmt.Sprintf("• %s %s (task %s)\n", d.ID, d.Type, d.TaskID))
	}
	if b.svc.Sync != nil {
		st := b.svc.Sync.State()
		line := fmt.Sprintf("🔄 Sync: %s", st.Status)
		if st.LastSyncAt != nil {
			line += fmt.Sprintf(", last at %s", st.LastSyncAt.Format("02.01 15:04"))
		}
		if st.Error != "" {
			line += fmt.Sprintf(", error: %s", st.Error)
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func (b *Bot) runSync(ctx context.Context) string {
	if b.svc.Sync == nil {
		return "Remote sync is not configured."
	}
	res := b.svc.Sync.SyncAll(ctx)
	if !res.Success {
		return fmt.Sprintf("❌ Sync failed: %s", res.Error)
	}
	r := res.Report
	return fmt.Sprintf("✅ Sync completed: %d uploaded, %d updated, %d downloaded, %d deferred, %d failed.",
		r.Uploaded, r.Updated, r.Downloaded, r.Deferred, r.Failed)
}

// withTask resolves the first argument to a task, by its number in today's
// list or by id, and passes the rest of the arguments on.
func (b *Bot) withTask(args string, fn func(model.Task, string) (string, error)) string {
	ref, rest, _ := strings.Cut(args, " ")
	if ref == "" {
		return "Give a task number or id, e.g. /done 1"
	}
	task, err := b.lookupTask(ref)
	if err != nil {
		return "Task not found."
	}
	text, err := fn(task, strings.TrimSpace(rest))
	if err != nil {
		if errors.Is(err, service.ErrTaskClosed) {
			return fmt.Sprintf("«%s» is already %s.", task.Title, task.Status)
		}
		return fmt.Sprintf("Error: %s", err)
	}
	return text
}

func (b *Bot) lookupTask(ref string) (model.Task, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		tasks := b.svc.Tasks.TasksForDate(b.now())
		if n < 1 || n > len(tasks) {
			return model.Task{}, service.ErrTaskNotFound
		}
		return tasks[n-1], nil
	}
	return b.svc.Tasks.GetTask(ref)
}

func (b *Bot) withActiveObjective(fn func(string) error, ok string) string {
	o, err := b.svc.Objectives.Active()
	if err != nil {
		return "No active objective."
	}
	if err := fn(o.ID); err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return ok
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func menuAlias(text string) (string, bool) {
	switch strings.TrimSpace(text) {
	case menuLabelTasks:
		return "tasks", true
	case menuLabelStatus:
		return "status", true
	case menuLabelSync:
		return "sync", true
	case menuLabelHelp:
		return "help", true
	}
	return "", false
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelStatus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSync),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-1]) + "…"
}
