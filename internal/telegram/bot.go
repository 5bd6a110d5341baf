package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/menu"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// MetricsReader exposes the usage report for the admin command.
type MetricsReader interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	RecentRuns(limit int) ([]metrics.PipelineRun, error)
}

// Bot serves the weekly menu and its comments over Telegram.
type Bot struct {
	api          sender
	comments     *app.Comments
	metricsStore MetricsReader
	cfg          *config.Config
	now          func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, comments *app.Comments, metricsStore MetricsReader) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	zap.L().Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	zap.L().Info("telegram webhook set", zap.String("description", resp.Description))

	return newBot(api, cfg, comments, metricsStore), nil
}

func newBot(api sender, cfg *config.Config, comments *app.Comments, metricsStore MetricsReader) *Bot {
	return &Bot{
		api:          api,
		comments:     comments,
		metricsStore: metricsStore,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WebhookHandler decodes Telegram updates and answers them in the background.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			zap.L().Warn("error parsing telegram update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		if update.Message == nil || update.Message.From == nil {
			return
		}
		if !b.isAllowed(update.Message.From.ID) {
			zap.L().Warn("unauthorized telegram access attempt",
				zap.Int64("user_id", update.Message.From.ID),
				zap.String("username", update.Message.From.UserName),
			)
			return
		}

		go b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.cfg.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, helpText)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "menu":
		b.handleMenu(msg.Chat.ID, args)
	case "comment":
		b.handleComment(msg.Chat.ID, args)
	case "delete":
		b.handleDelete(msg.Chat.ID, args)
	case "metrics":
		if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = "🍱 *Weekly lunch menu*\n\n" +
	"/menu `[day]` show a day, today by default\n" +
	"/comment `<day> <text>` leave an anonymous comment\n" +
	"/delete `<day> <id>` remove a comment"

func (b *Bot) handleMenu(chatID int64, args string) {
	doc, err := b.comments.Load()
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	day, err := resolveDay(doc, args, b.now())
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, formatDayMarkdown(doc.RestaurantName, day.View()))
}

func (b *Bot) handleComment(chatID int64, args string) {
	dayArg, text, _ := strings.Cut(args, " ")
	if dayArg == "" || strings.TrimSpace(text) == "" {
		b.reply(chatID, "Usage: /comment `<day> <text>`")
		return
	}

	doc, err := b.comments.Load()
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	day, err := resolveDay(doc, dayArg, b.now())
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	c, err := b.comments.Post(day.DayName, text)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Comment saved as *%s*.", escape(c.Author)))
}

func (b *Bot) handleDelete(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.reply(chatID, "Usage: /delete `<day> <id>`")
		return
	}

	doc, err := b.comments.Load()
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	day, err := resolveDay(doc, fields[0], b.now())
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	removed, err := b.comments.Delete(day.DayName, fields[1])
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if removed == 0 {
		b.reply(chatID, "No comment with that id.")
		return
	}
	b.reply(chatID, "🗑 Comment deleted.")
}

func (b *Bot) handleMetrics(chatID int64) {
	if b.metricsStore == nil {
		b.reply(chatID, "❌ Metrics are not configured.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	runs, err := b.metricsStore.RecentRuns(5)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath), b.cfg.MenuPath)
	b.reply(chatID, formatMetricsReport(usage, runs, health))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		zap.L().Warn("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, storage.ErrNotFound):
		text = "❌ The weekly menu has not been fetched yet."
	case errors.Is(err, storage.ErrCorrupt):
		text = "❌ The weekly menu file could not be read."
	case errors.Is(err, menu.ErrUnknownDay):
		text = "❌ Unknown day."
	case errors.Is(err, menu.ErrEmptyComment):
		text = "❌ Comment text is empty."
	default:
		zap.L().Error("telegram command failed", zap.Error(err))
		text = "❌ Something went wrong."
	}
	b.reply(chatID, text)
}

// resolveDay picks the day named by arg. An exact name wins, otherwise a
// unique prefix ("월" for "월요일"). An empty arg selects today.
func resolveDay(doc *menu.Document, arg string, now time.Time) (*menu.DayEntry, error) {
	if len(doc.Days) == 0 {
		return nil, fmt.Errorf("%w: document has no days", menu.ErrUnknownDay)
	}
	if arg == "" {
		return &doc.Days[menu.DefaultDayIndex(now, len(doc.Days))], nil
	}
	if day, err := doc.Day(arg); err == nil {
		return day, nil
	}

	var match *menu.DayEntry
	for i := range doc.Days {
		if strings.HasPrefix(doc.Days[i].DayName, arg) {
			if match != nil {
				return nil, fmt.Errorf("%w: %q is ambiguous", menu.ErrUnknownDay, arg)
			}
			match = &doc.Days[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", menu.ErrUnknownDay, arg)
	}
	return match, nil
}

func formatDayMarkdown(restaurant string, v menu.DayView) string {
	var sb strings.Builder
	sb.WriteString("🍱 ")
	if restaurant != "" {
		sb.WriteString(fmt.Sprintf("*%s* · ", escape(restaurant)))
	}
	sb.WriteString(fmt.Sprintf("*%s*\n\n", escape(v.DayName)))

	if len(v.MainLunch) == 0 {
		sb.WriteString("_No dishes listed_\n")
	}
	for _, item := range v.MainLunch {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(item)))
	}

	if v.ShowPlus {
		sb.WriteString("\n➕ *PLUS*\n")
		for _, item := range v.Plus {
			sb.WriteString(fmt.Sprintf("• %s\n", escape(item)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n💬 *Comments (%d)*\n", len(v.Comments)))
	for _, c := range v.Comments {
		sb.WriteString(fmt.Sprintf("• *%s* %s\n  %s\n  `%s`\n", escape(c.Author), escape(c.Time), escape(c.Text), c.ID))
	}
	return sb.String()
}

func formatMetricsReport(usage []metrics.DailyUsage, runs []metrics.PipelineRun, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🔄 *Recent Runs*\n")
	if len(runs) == 0 {
		sb.WriteString("_No runs yet_\n")
	}
	for _, r := range runs {
		line := fmt.Sprintf("• %s %s (%s)", r.StartedAt.Local().Format("01-02 15:04"), r.Status, r.Duration.Round(time.Second))
		if r.Status == metrics.RunSucceeded {
			line += fmt.Sprintf(", %d days", r.DayCount)
		} else if r.Error != "" {
			line += ": " + escape(r.Error)
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	if health.MenuPresent {
		sb.WriteString(fmt.Sprintf("• Menu: %s, updated %s\n", health.MenuSize, health.MenuModified.Format("2006-01-02 15:04")))
	} else {
		sb.WriteString("• Menu: _missing_\n")
	}
	return sb.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
