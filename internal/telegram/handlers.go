package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
)

// senderID is the identity everything is keyed and delivered on: the message
// author, as in the user record and conversation state stores.
func senderID(msg *tgbotapi.Message) int64 {
	return msg.From.ID
}

// userFromMessage builds the profile defaults from the message author.
func userFromMessage(msg *tgbotapi.Message) *domain.User {
	u := &domain.User{TelegramID: msg.From.ID}
	u.Username = msg.From.UserName
	u.FirstName = msg.From.FirstName
	u.LastName = msg.From.LastName
	return u
}

// --- Inbound funnel steps ---

func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := senderID(msg)
	if _, err := r.repo.GetOrCreateUser(ctx, userFromMessage(msg)); err != nil {
		r.log.Error("register user failed", zap.Error(err), zap.Int64("chat_id", chatID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	if err := r.sender.sendTextWithKeyboard(chatID, startText, aboutKeyboard()); err != nil {
		r.log.Error("greeting failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (r *Router) handleAbout(_ context.Context, chatID int64) {
	if err := r.sender.SendPhoto(chatID, r.promoPhotoPath, aboutCaption, getFileKeyboard()); err != nil {
		r.log.Error("promo photo failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

// handleGetFile delivers the program PDF. Requesting it is the qualifying
// action for the per-user morning follow-up.
func (r *Router) handleGetFile(ctx context.Context, chatID int64) {
	if err := r.sender.SendDocument(chatID, r.promoFilePath); err != nil {
		r.log.Error("promo document failed", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}
	if err := r.campaign.NoteQualifyingAction(ctx, chatID, time.Now()); err != nil {
		r.log.Error("followup scheduling failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (r *Router) handleBuy(ctx context.Context, chatID int64) {
	if err := r.workflow.StartPurchase(ctx, chatID); err != nil {
		r.log.Error("start purchase failed", zap.Error(err), zap.Int64("chat_id", chatID))
		r.sendText(chatID, "Something went wrong, please try again later.")
	}
}

func (r *Router) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	payload := msg.SuccessfulPayment.InvoicePayload
	if err := r.workflow.CompletePayment(ctx, userFromMessage(msg), payload); err != nil {
		r.log.Error("payment completion failed", zap.Error(err), zap.Int64("chat_id", senderID(msg)))
	}
}

func (r *Router) sendText(chatID int64, text string) {
	if err := r.sender.SendText(chatID, text); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

// --- Scheduled job handlers ---

// BroadcastSell delivers the sell message to every user who has not paid.
// Per-recipient failures are logged and skipped rather than failing the job:
// re-firing the broadcast would re-send to everyone who already got it.
func (r *Router) BroadcastSell(ctx context.Context, _ domain.Job) error {
	users, err := r.repo.ListUnpaid(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := r.sender.SendText(u.TelegramID, sellingText); err != nil {
			r.log.Error("sell message failed", zap.Error(err), zap.Int64("chat_id", u.TelegramID))
			continue
		}
		if err := r.sender.sendTextWithKeyboard(u.TelegramID, buyText, buyKeyboard()); err != nil {
			r.log.Error("buy prompt failed", zap.Error(err), zap.Int64("chat_id", u.TelegramID))
		}
	}
	r.log.Info("sell broadcast delivered", zap.Int("recipients", len(users)))
	return nil
}

// MorningFollowup delivers the per-user morning reminder. A send failure is
// returned so the scheduler retries the job on its next poll.
func (r *Router) MorningFollowup(_ context.Context, job domain.Job) error {
	if job.TargetUser == nil {
		r.log.Warn("followup job without target user", zap.String("job", job.Name))
		return nil
	}
	return r.sender.sendTextWithKeyboard(*job.TargetUser, morningText, buyKeyboard())
}
