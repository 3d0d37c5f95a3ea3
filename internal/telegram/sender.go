package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

// Sender wraps the bot API for outbound delivery. It satisfies
// payment.Notifier and is the single place transport calls go through.
type Sender struct {
	bot           *tgbotapi.BotAPI
	providerToken string
}

// NewSender creates a Sender. providerToken is the payment-provider credential
// attached to invoices.
func NewSender(bot *tgbotapi.BotAPI, providerToken string) *Sender {
	return &Sender{bot: bot, providerToken: providerToken}
}

// SendText sends a plain text message to the given chat.
func (s *Sender) SendText(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendTextClearKeyboard sends a text message and removes the reply keyboard.
func (s *Sender) SendTextClearKeyboard(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) sendTextWithKeyboard(chatID int64, text string, kb tgbotapi.ReplyKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := s.bot.Send(msg)
	return err
}

// SendPhoto sends a local photo with caption and keyboard.
func (s *Sender) SendPhoto(chatID int64, path, caption string, kb tgbotapi.ReplyKeyboardMarkup) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.ReplyMarkup = kb
	_, err := s.bot.Send(photo)
	return err
}

// SendDocument sends a local document and removes the reply keyboard.
func (s *Sender) SendDocument(chatID int64, path string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := s.bot.Send(doc)
	return err
}

// SendInvoice issues a payment invoice.
func (s *Sender) SendInvoice(chatID int64, inv domain.Invoice) error {
	cfg := tgbotapi.NewInvoice(
		chatID,
		inv.Title,
		inv.Description,
		inv.Payload,
		s.providerToken,
		"", // start parameter
		inv.Currency,
		[]tgbotapi.LabeledPrice{{Label: inv.Title, Amount: inv.Amount}},
	)
	_, err := s.bot.Send(cfg)
	return err
}

// AnswerPreCheckout answers a pre-checkout query.
func (s *Sender) AnswerPreCheckout(queryID string, ok bool) error {
	_, err := s.bot.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
	})
	return err
}
