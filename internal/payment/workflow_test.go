package payment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
)

type sentText struct {
	chatID          int64
	text            string
	clearedKeyboard bool
}

type fakeNotifier struct {
	texts        []sentText
	invoices     []domain.Invoice
	precheckouts []string
	failInvoice  bool
}

func (f *fakeNotifier) SendText(chatID int64, text string) error {
	f.texts = append(f.texts, sentText{chatID: chatID, text: text})
	return nil
}

func (f *fakeNotifier) SendTextClearKeyboard(chatID int64, text string) error {
	f.texts = append(f.texts, sentText{chatID: chatID, text: text, clearedKeyboard: true})
	return nil
}

func (f *fakeNotifier) SendInvoice(chatID int64, inv domain.Invoice) error {
	if f.failInvoice {
		return errors.New("transport unreachable")
	}
	f.invoices = append(f.invoices, inv)
	return nil
}

func (f *fakeNotifier) AnswerPreCheckout(queryID string, ok bool) error {
	if !ok {
		return errors.New("unexpected rejection")
	}
	f.precheckouts = append(f.precheckouts, queryID)
	return nil
}

type fakeExporter struct {
	rows []domain.User
	fail bool
}

func (f *fakeExporter) AppendUser(_ context.Context, u *domain.User) error {
	if f.fail {
		return errors.New("sheet unavailable")
	}
	f.rows = append(f.rows, *u)
	return nil
}

func newTestWorkflow(t *testing.T) (*Workflow, *store.SQLiteRepo, *fakeNotifier, *fakeExporter) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	notifier := &fakeNotifier{}
	exporter := &fakeExporter{}
	w := NewWorkflow(repo, repo, notifier, exporter, zap.NewNop(), 4990, "RUB")
	return w, repo, notifier, exporter
}

func registerUser(t *testing.T, repo *store.SQLiteRepo, chatID int64) {
	t.Helper()
	_, err := repo.GetOrCreateUser(context.Background(), &domain.User{TelegramID: chatID, FirstName: "Alice"})
	require.NoError(t, err)
}

func TestStartPurchase(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)

	require.NoError(t, w.StartPurchase(ctx, 42))

	st, err := repo.GetState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingEmail, st)
	require.Len(t, notifier.texts, 1)
	assert.Equal(t, askEmailText, notifier.texts[0].text)
	assert.True(t, notifier.texts[0].clearedKeyboard, "prompt removes the reply keyboard")
}

func TestSubmitEmail_NotAwaiting(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	registerUser(t, repo, 42)

	handled, err := w.SubmitEmail(context.Background(), 42, "a@b.com")
	require.NoError(t, err)
	assert.False(t, handled, "idle users' text is not part of the payment flow")
	assert.Empty(t, notifier.texts)
	assert.Empty(t, notifier.invoices)
}

func TestSubmitEmail_Invalid(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)
	require.NoError(t, repo.SetState(ctx, 42, domain.StateAwaitingEmail))

	handled, err := w.SubmitEmail(ctx, 42, "not-an-email")
	require.NoError(t, err)
	assert.True(t, handled)

	st, err := repo.GetState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingEmail, st, "state unchanged on validation failure")

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u.Email, "stored email untouched")

	require.Len(t, notifier.texts, 1)
	assert.Equal(t, badEmailText, notifier.texts[0].text)
	assert.Empty(t, notifier.invoices)
}

func TestSubmitEmail_Valid(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)
	require.NoError(t, repo.SetState(ctx, 42, domain.StateAwaitingEmail))

	handled, err := w.SubmitEmail(ctx, 42, "a@b.com")
	require.NoError(t, err)
	assert.True(t, handled)

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, u.Email)
	assert.Equal(t, "a@b.com", *u.Email)

	st, err := repo.GetState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, st)

	require.Len(t, notifier.invoices, 1)
	inv := notifier.invoices[0]
	assert.Equal(t, PayloadTag, inv.Payload)
	assert.Equal(t, "RUB", inv.Currency)
	assert.Equal(t, 499000, inv.Amount, "minor units")
}

func TestSubmitEmail_UserMissing(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	ctx := context.Background()
	// No user row: invoice time NotFound is surfaced as a generic failure.
	require.NoError(t, repo.SetState(ctx, 42, domain.StateAwaitingEmail))

	handled, err := w.SubmitEmail(ctx, 42, "a@b.com")
	require.NoError(t, err)
	assert.True(t, handled)

	require.Len(t, notifier.texts, 1)
	assert.Equal(t, genericError, notifier.texts[0].text)
	assert.Empty(t, notifier.invoices)

	st, err := repo.GetState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingEmail, st, "no state mutation on abort")
}

func TestSubmitEmail_InvoiceFailureKeepsState(t *testing.T) {
	w, repo, notifier, _ := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)
	require.NoError(t, repo.SetState(ctx, 42, domain.StateAwaitingEmail))
	notifier.failInvoice = true

	handled, err := w.SubmitEmail(ctx, 42, "a@b.com")
	assert.True(t, handled)
	require.Error(t, err)

	st, stErr := repo.GetState(ctx, 42)
	require.NoError(t, stErr)
	assert.Equal(t, domain.StateAwaitingEmail, st, "user can retry by resending the address")
}

func TestApprovePreCheckout_Unconditional(t *testing.T) {
	w, _, notifier, _ := newTestWorkflow(t)

	require.NoError(t, w.ApprovePreCheckout("q1"))
	assert.Equal(t, []string{"q1"}, notifier.precheckouts)
}

func TestCompletePayment_UnknownPayloadIgnored(t *testing.T) {
	w, repo, notifier, exporter := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)

	require.NoError(t, w.CompletePayment(ctx, &domain.User{TelegramID: 42}, "something-else"))

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.False(t, u.HasPaid)
	assert.Empty(t, notifier.texts)
	assert.Empty(t, exporter.rows)
}

func TestCompletePayment_DuplicateSignalsAbsorbed(t *testing.T) {
	w, repo, notifier, exporter := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)
	from := &domain.User{TelegramID: 42, FirstName: "Alice"}

	require.NoError(t, w.CompletePayment(ctx, from, PayloadTag))
	require.NoError(t, w.CompletePayment(ctx, from, PayloadTag))

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, u.HasPaid)

	assert.Len(t, notifier.texts, 1, "exactly one confirmation")
	assert.Len(t, exporter.rows, 1, "exporter invoked exactly once")
	assert.True(t, exporter.rows[0].HasPaid)
}

func TestCompletePayment_UnregisteredUserCreated(t *testing.T) {
	w, repo, _, exporter := newTestWorkflow(t)
	ctx := context.Background()

	// A completion signal can arrive for a user the bot never saw (e.g., a
	// wiped database); the profile is created on the spot.
	from := &domain.User{TelegramID: 7, Username: "bob"}
	require.NoError(t, w.CompletePayment(ctx, from, PayloadTag))

	u, err := repo.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.True(t, u.HasPaid)
	require.Len(t, exporter.rows, 1)
}

func TestCompletePayment_ExportFailureDoesNotRevert(t *testing.T) {
	w, repo, notifier, exporter := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)
	exporter.fail = true

	require.NoError(t, w.CompletePayment(ctx, &domain.User{TelegramID: 42}, PayloadTag))

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, u.HasPaid, "payment is the source of truth; export is best-effort")
	assert.Len(t, notifier.texts, 1)
}

// TestFunnelScenario walks the full flow: purchase request, invalid email,
// valid email, invoice, and a duplicated completion signal.
func TestFunnelScenario(t *testing.T) {
	w, repo, notifier, exporter := newTestWorkflow(t)
	ctx := context.Background()
	registerUser(t, repo, 42)

	st, err := repo.GetState(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, domain.StateIdle, st)

	require.NoError(t, w.StartPurchase(ctx, 42))
	st, _ = repo.GetState(ctx, 42)
	require.Equal(t, domain.StateAwaitingEmail, st)

	handled, err := w.SubmitEmail(ctx, 42, "not-an-email")
	require.NoError(t, err)
	require.True(t, handled)
	st, _ = repo.GetState(ctx, 42)
	require.Equal(t, domain.StateAwaitingEmail, st)

	handled, err = w.SubmitEmail(ctx, 42, "a@b.com")
	require.NoError(t, err)
	require.True(t, handled)
	st, _ = repo.GetState(ctx, 42)
	require.Equal(t, domain.StateIdle, st)
	require.Len(t, notifier.invoices, 1)

	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, u.Email)
	assert.Equal(t, "a@b.com", *u.Email)

	from := &domain.User{TelegramID: 42, FirstName: "Alice"}
	require.NoError(t, w.CompletePayment(ctx, from, PayloadTag))
	require.NoError(t, w.CompletePayment(ctx, from, PayloadTag))

	u, err = repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, u.HasPaid)
	assert.Len(t, exporter.rows, 1, "one export row appended")
}
