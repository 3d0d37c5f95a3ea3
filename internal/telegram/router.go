package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/campaign"
	"github.com/timofeiryko/tg-marketing-bot/internal/payment"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
)

// Router wires Telegram updates to the funnel handlers.
type Router struct {
	sender   *Sender
	log      *zap.Logger
	repo     store.Repo
	workflow *payment.Workflow
	campaign *campaign.Orchestrator

	promoPhotoPath string
	promoFilePath  string
}

// NewRouter creates a new Telegram router.
func NewRouter(sender *Sender, log *zap.Logger, repo store.Repo, wf *payment.Workflow, orch *campaign.Orchestrator, promoPhotoPath, promoFilePath string) *Router {
	return &Router{
		sender:         sender,
		log:            log,
		repo:           repo,
		workflow:       wf,
		campaign:       orch,
		promoPhotoPath: promoPhotoPath,
		promoFilePath:  promoFilePath,
	}
}

// HandleUpdate routes a single update to the appropriate handler. Failures are
// logged and absorbed here; one bad update never stops the loop.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.PreCheckoutQuery != nil {
		if err := r.workflow.ApprovePreCheckout(upd.PreCheckoutQuery.ID); err != nil {
			r.log.Error("pre-checkout answer failed", zap.Error(err))
		}
		return
	}

	if upd.Message == nil || upd.Message.From == nil {
		return
	}
	msg := upd.Message
	// Funnel state and user records key on the author, not the chat; the
	// two coincide only in private chats.
	userID := senderID(msg)

	if msg.SuccessfulPayment != nil {
		r.handleSuccessfulPayment(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		r.handleStart(ctx, msg)
	case text == btnAbout:
		r.handleAbout(ctx, userID)
	case text == btnGetFile:
		r.handleGetFile(ctx, userID)
	case text == btnBuy:
		r.handleBuy(ctx, userID)
	default:
		handled, err := r.workflow.SubmitEmail(ctx, userID, text)
		if err != nil {
			r.log.Error("email submission failed", zap.Error(err), zap.Int64("chat_id", userID))
			return
		}
		if !handled {
			// Free-form text outside any flow: ignore.
			r.log.Debug("unrecognized message ignored", zap.Int64("chat_id", userID))
		}
	}
}
