package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
)

// PayloadTag marks invoices issued by this campaign; completion signals
// carrying any other payload are ignored.
const PayloadTag = "buy-course"

const (
	askEmailText = "Please send the email address we should register for you 📧"
	badEmailText = "That doesn't look like a valid email address.\n\nPlease send a correct one 😔"
	genericError = "Something went wrong, please try again later."
	paidText     = "Payment received — you're in! 🎉\nWe've sent the details to your email."

	invoiceTitle       = "Course intensive"
	invoiceDescription = "Lectures on the most common topics and lots of practice: seminars and live calls"
)

// Notifier is the outbound side of the messaging transport the workflow needs.
type Notifier interface {
	SendText(chatID int64, text string) error
	// SendTextClearKeyboard also removes any reply keyboard on the user's side.
	SendTextClearKeyboard(chatID int64, text string) error
	SendInvoice(chatID int64, inv domain.Invoice) error
	AnswerPreCheckout(queryID string, ok bool) error
}

// Exporter appends a paid user to the external spreadsheet. Best-effort: a
// failure never affects the payment itself.
type Exporter interface {
	AppendUser(ctx context.Context, u *domain.User) error
}

// Workflow orchestrates email collection, invoice issuance, pre-checkout
// approval and the idempotent post-payment transition.
type Workflow struct {
	users    store.UserRepo
	states   store.StateRepo
	notifier Notifier
	exporter Exporter
	log      *zap.Logger

	price    int // major currency units
	currency string
}

// NewWorkflow wires the payment workflow.
func NewWorkflow(users store.UserRepo, states store.StateRepo, notifier Notifier, exporter Exporter, log *zap.Logger, price int, currency string) *Workflow {
	return &Workflow{
		users:    users,
		states:   states,
		notifier: notifier,
		exporter: exporter,
		log:      log,
		price:    price,
		currency: currency,
	}
}

// StartPurchase moves the user to the awaiting-email state and prompts for an
// email address. The prompt drops the reply keyboard: the next message from
// the user is free-form text, not a button press.
func (w *Workflow) StartPurchase(ctx context.Context, chatID int64) error {
	if err := w.states.SetState(ctx, chatID, domain.StateAwaitingEmail); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	if err := w.notifier.SendTextClearKeyboard(chatID, askEmailText); err != nil {
		w.log.Error("email prompt failed", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return nil
}

// SubmitEmail consumes a text message while the user is awaiting email. The
// returned bool reports whether the message was part of the payment flow;
// false means the caller should treat it as ordinary text.
//
// An invalid address re-prompts and leaves the state unchanged. A valid one
// is persisted and answered with an invoice; the state returns to idle only
// after the invoice went out, so a transport failure lets the user retry by
// resending the address.
func (w *Workflow) SubmitEmail(ctx context.Context, chatID int64, text string) (bool, error) {
	st, err := w.states.GetState(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("get state: %w", err)
	}
	if st != domain.StateAwaitingEmail {
		return false, nil
	}

	email, err := domain.NormalizeEmail(text)
	if err != nil {
		if err := w.notifier.SendText(chatID, badEmailText); err != nil {
			w.log.Error("validation reply failed", zap.Error(err), zap.Int64("chat_id", chatID))
		}
		return true, nil
	}

	if err := w.users.SetEmail(ctx, chatID, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if err := w.notifier.SendText(chatID, genericError); err != nil {
				w.log.Error("error reply failed", zap.Error(err), zap.Int64("chat_id", chatID))
			}
			return true, nil
		}
		return true, fmt.Errorf("set email: %w", err)
	}

	inv := domain.Invoice{
		Title:       invoiceTitle,
		Description: invoiceDescription,
		Currency:    w.currency,
		Amount:      w.price * 100,
		Payload:     PayloadTag,
	}
	if err := w.notifier.SendInvoice(chatID, inv); err != nil {
		return true, fmt.Errorf("send invoice: %w", err)
	}

	if err := w.states.SetState(ctx, chatID, domain.StateIdle); err != nil {
		return true, fmt.Errorf("set state: %w", err)
	}
	w.log.Info("invoice issued", zap.Int64("chat_id", chatID))
	return true, nil
}

// ApprovePreCheckout answers a payment-intent check. Approval is
// unconditional: no fraud or amount verification is performed. This is a
// deliberate policy, not an omission.
func (w *Workflow) ApprovePreCheckout(queryID string) error {
	return w.notifier.AnswerPreCheckout(queryID, true)
}

// CompletePayment handles a payment completion signal, which the transport may
// deliver more than once. The has-paid transition happens exactly once per
// user: a compare-and-set in the user store decides the winner, and losers
// perform no side effects at all.
func (w *Workflow) CompletePayment(ctx context.Context, from *domain.User, payload string) error {
	if payload != PayloadTag {
		w.log.Warn("completion signal with unknown payload",
			zap.String("payload", payload), zap.Int64("chat_id", from.TelegramID))
		return nil
	}

	u, err := w.users.GetOrCreateUser(ctx, from)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	won, err := w.users.MarkPaid(ctx, u.TelegramID)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if !won {
		// Duplicate signal; silently absorbed.
		w.log.Info("duplicate completion signal ignored", zap.Int64("chat_id", u.TelegramID))
		return nil
	}

	if err := w.notifier.SendText(u.TelegramID, paidText); err != nil {
		w.log.Error("post-payment message failed", zap.Error(err), zap.Int64("chat_id", u.TelegramID))
	}

	// Export is best-effort: a failure leaves a paid-but-unexported user,
	// recoverable by a manual re-export, never a dropped payment.
	paid, err := w.users.GetUser(ctx, u.TelegramID)
	if err != nil {
		w.log.Error("reload paid user failed", zap.Error(err), zap.Int64("chat_id", u.TelegramID))
		return nil
	}
	if err := w.exporter.AppendUser(ctx, paid); err != nil {
		w.log.Error("sheet export failed", zap.Error(err), zap.Int64("chat_id", u.TelegramID))
	}
	return nil
}
