package telegram

import (
	"fmt"
	"strings"

	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/priority"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(cfg config.TelegramConfig) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{api: api, chatID: cfg.ChatID}, nil
}

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// FormatJob renders one ranked job as a MarkdownV2 message.
func FormatJob(rj priority.RankedJob) string {
	job := rj.Job
	var sb strings.Builder
	fmt.Fprintf(&sb, "📌 *%s*\n", escapeMarkdown(job.Title))
	fmt.Fprintf(&sb, "💰 %s\n", escapeMarkdown(job.BudgetDisplay()))
	fmt.Fprintf(&sb, "🗂 %s / %s\n", escapeMarkdown(string(job.Category)), escapeMarkdown(string(job.JobType)))

	if job.RemainingDays != nil {
		fmt.Fprintf(&sb, "⏳ %s\n", escapeMarkdown(fmt.Sprintf("残り%d日", *job.RemainingDays)))
	}
	if job.ProposalCount != nil {
		fmt.Fprintf(&sb, "✋ %s\n", escapeMarkdown(fmt.Sprintf("提案 %d件", *job.ProposalCount)))
	}
	if len(job.RequiredSkills) > 0 {
		fmt.Fprintf(&sb, "🛠 %s\n", escapeMarkdown(strings.Join(job.RequiredSkills, ", ")))
	}
	if job.Client != nil && job.Client.Name != "" {
		fmt.Fprintf(&sb, "🏢 %s\n", escapeMarkdown(job.Client.Name))
	}

	fmt.Fprintf(&sb, "🤖 Score: %s\n", escapeMarkdown(fmt.Sprintf("%.1f/100", rj.Score.OverallScore)))
	for _, reason := range rj.Score.Reasons {
		fmt.Fprintf(&sb, "  • %s\n", escapeMarkdown(reason))
	}
	return sb.String()
}

func (b *Bot) SendJob(rj priority.RankedJob) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", rj.Job.URL),
		),
	)

	msg := tgbotapi.NewMessage(b.chatID, FormatJob(rj))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = keyboard
	msg.DisableWebPagePreview = true

	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

// SendDocument uploads a local file, e.g. a PDF report.
func (b *Bot) SendDocument(path, caption string) error {
	doc := tgbotapi.NewDocument(b.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := b.api.Send(doc)
	return err
}
