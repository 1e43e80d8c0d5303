package telegram

import (
	"errors"
	"testing"

	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func rankedJob() priority.RankedJob {
	job := models.NewJobRecord(models.ServiceLancers, "5012345", "https://www.lancers.jp/work/detail/5012345")
	job.Title = "Go製API (v2.0) の改修"
	job.Category = models.CategoryWebDevelopment
	job.JobType = models.JobTypeProject
	job.BudgetMin = models.Int(100000)
	job.BudgetMax = models.Int(300000)
	job.RemainingDays = models.Int(5)
	job.RequiredSkills = []string{"Go", "PostgreSQL"}
	return priority.RankedJob{
		Job:   job,
		Score: priority.Score{JobID: "5012345", OverallScore: 82.5, Reasons: []string{"必要スキルが一致しています"}},
	}
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\.d\!`, escapeMarkdown("a_b*c.d!"))
	assert.Equal(t, `\(x\) \- y`, escapeMarkdown("(x) - y"))
	assert.Equal(t, `\\`, escapeMarkdown(`\`))
}

func TestFormatJob(t *testing.T) {
	text := FormatJob(rankedJob())

	assert.Contains(t, text, `📌 *Go製API \(v2\.0\) の改修*`)
	assert.Contains(t, text, "100,000円 〜 300,000円")
	assert.Contains(t, text, `web\_development / project`)
	assert.Contains(t, text, "残り5日")
	assert.Contains(t, text, "Go, PostgreSQL")
	assert.Contains(t, text, `82\.5/100`)
	assert.Contains(t, text, "必要スキルが一致しています")
	assert.NotContains(t, text, "🏢")
}

func TestBot_Send(t *testing.T) {
	api := &fakeAPI{}
	bot := &Bot{api: api, chatID: 42}

	require.NoError(t, bot.SendJob(rankedJob()))
	require.NoError(t, bot.SendStatus("done"))
	require.NoError(t, bot.SendDocument("/tmp/report.pdf", "report"))
	require.Len(t, api.sent, 3)

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, keyboard.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://www.lancers.jp/work/detail/5012345", *keyboard.InlineKeyboard[0][0].URL)

	status := api.sent[1].(tgbotapi.MessageConfig)
	assert.Equal(t, "ℹ️ done", status.Text)

	doc, ok := api.sent[2].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "report", doc.Caption)
}

func TestBot_SendError(t *testing.T) {
	api := &fakeAPI{err: errors.New("blocked")}
	bot := &Bot{api: api, chatID: 1}

	err := bot.SendError(errors.New("boom"))
	assert.EqualError(t, err, "blocked")
	assert.Equal(t, "❌ Error: boom", api.sent[0].(tgbotapi.MessageConfig).Text)
}
