package notification

import (
	"fmt"

	"servicehub/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramAlerter pushes operational alerts to the admin chat. Money
// problems (failed payouts, webhook mismatches) should not wait for someone
// to open the dashboard.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramAlerter creates an alerter, or nil when telegram is disabled
func NewTelegramAlerter(cfg config.TelegramConfig, logger zerolog.Logger) (*TelegramAlerter, error) {
	if !cfg.Enabled || cfg.BotToken == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramAlerter{
		bot:    bot,
		chatID: cfg.AdminChatID,
		logger: logger,
	}, nil
}

// PayoutFailed alerts admins about a failed transfer
func (t *TelegramAlerter) PayoutFailed(payoutID, providerID string, amount int64, reason string) {
	t.send(fmt.Sprintf(
		"⚠️ Payout failed\nPayout: %s\nProvider: %s\nAmount: %d\nReason: %s",
		payoutID, providerID, amount, reason,
	))
}

// WebhookMismatch alerts admins about a webhook the service could not apply
func (t *TelegramAlerter) WebhookMismatch(kind, reference, detail string) {
	t.send(fmt.Sprintf("⚠️ Webhook mismatch (%s)\nReference: %s\n%s", kind, reference, detail))
}

// ReleaseRolledBack alerts admins that an escrow release was compensated
func (t *TelegramAlerter) ReleaseRolledBack(paymentID, reason string) {
	t.send(fmt.Sprintf("⚠️ Escrow release rolled back\nPayment: %s\nReason: %s", paymentID, reason))
}

func (t *TelegramAlerter) send(text string) {
	if t == nil || t.bot == nil {
		return
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn().Err(err).Msg("failed to send telegram alert")
	}
}
