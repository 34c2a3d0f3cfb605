package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/idgen"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/qr"
)

// QRState is a step of the UPI QR flow.
type QRState string

const (
	StateCollecting QRState = "collecting-upi-id"
	StateGenerated  QRState = "qr-generated"
	StateAwaiting   QRState = "awaiting-confirmation"
	StateVerified   QRState = "verified"
)

// Default simulated delays for the QR flow.
const (
	DefaultQRGenerateDelay = 1500 * time.Millisecond
	DefaultQRVerifyDelay   = 2 * time.Second
	DefaultQRRetention     = 30 * time.Minute
)

// QRSession is a snapshot of one QR payment flow.
type QRSession struct {
	ID          string                `json:"id"`
	State       QRState               `json:"state"`
	Amount      int64                 `json:"amount"`
	FeeTitle    string                `json:"feeTitle"`
	UPIID       string                `json:"upiId,omitempty"`
	DeepLink    string                `json:"deepLink,omitempty"`
	ImageURL    string                `json:"imageUrl,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt,omitempty"`
	ExpiresAt   time.Time             `json:"expiresAt,omitempty"`
	Result      *domain.PaymentResult `json:"result,omitempty"`
	Request     Request               `json:"-"`
}

// attempt is one pass from collecting to verified or closed.
type attempt struct {
	done   chan struct{}
	result *domain.PaymentResult
	err    error
}

func newAttempt() *attempt {
	return &attempt{done: make(chan struct{})}
}

// finish wakes Initiate waiters once per attempt.
func (at *attempt) finish(result *domain.PaymentResult, err error) {
	select {
	case <-at.done:
	default:
		at.result, at.err = result, err
		close(at.done)
	}
}

type qrFlow struct {
	QRSession
	attempt *attempt
	touched time.Time
}

// QRAdapter drives UPI QR payments. The user claims completion manually;
// there is no gateway callback.
type QRAdapter struct {
	PayeeVPA      string
	PayeeName     string
	Renderer      qr.Renderer
	IDs           idgen.Generator
	GenerateDelay time.Duration
	VerifyDelay   time.Duration
	// Expiry bounds how long a generated code stays payable. Zero never expires.
	Expiry time.Duration
	// Retention is how long an untouched flow, verified or not, is kept.
	// Zero keeps flows until Close.
	Retention time.Duration
	Sleep     Sleeper
	Now       func() time.Time

	mu    sync.Mutex
	flows map[string]*qrFlow
}

// NewQRAdapter returns an adapter with default delays, sleeper and clock.
func NewQRAdapter(payeeVPA, payeeName string, renderer qr.Renderer, ids idgen.Generator) *QRAdapter {
	return &QRAdapter{
		PayeeVPA:      payeeVPA,
		PayeeName:     payeeName,
		Renderer:      renderer,
		IDs:           ids,
		GenerateDelay: DefaultQRGenerateDelay,
		VerifyDelay:   DefaultQRVerifyDelay,
		Retention:     DefaultQRRetention,
		Sleep:         Sleep,
		Now:           time.Now,
		flows:         make(map[string]*qrFlow),
	}
}

// DeepLink builds the UPI intent URI embedded in the QR image.
func DeepLink(payeeVPA, payeeName string, amount int64, note string) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%d&cu=INR&tn=%s",
		upiEscape(payeeVPA), upiEscape(payeeName), amount, upiEscape(note))
}

func upiEscape(s string) string {
	e := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return strings.ReplaceAll(e, "%40", "@")
}

// Supports implements Adapter.
func (a *QRAdapter) Supports(m domain.Method) bool {
	return m == domain.MethodQRCode
}

// Open starts a flow in the collecting state.
func (a *QRAdapter) Open(req Request) (QRSession, error) {
	if err := requirePositive(req.Amount); err != nil {
		return QRSession{}, err
	}
	id := req.SessionID
	if id == "" {
		id = a.IDs.NewID("QR")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flows == nil {
		a.flows = make(map[string]*qrFlow)
	}
	a.prune(a.Now())
	if _, exists := a.flows[id]; exists {
		return QRSession{}, validationError("session " + id + " already exists")
	}
	f := &qrFlow{
		QRSession: QRSession{ID: id, State: StateCollecting, Amount: req.Amount, FeeTitle: req.FeeTitle, UPIID: req.UPIID, Request: req},
		attempt:   newAttempt(),
		touched:   a.Now(),
	}
	a.flows[id] = f
	return f.QRSession, nil
}

// Get returns the current snapshot of a flow.
func (a *QRAdapter) Get(id string) (QRSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := a.flow(id)
	if err != nil {
		return QRSession{}, err
	}
	return f.QRSession, nil
}

func (a *QRAdapter) flow(id string) (*qrFlow, error) {
	f, ok := a.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return f, nil
}

// Generate moves collecting -> qr-generated. upiID must be non-empty.
func (a *QRAdapter) Generate(ctx context.Context, id, upiID string) (QRSession, error) {
	a.mu.Lock()
	f, err := a.flow(id)
	if err == nil && f.State != StateCollecting {
		err = a.transitionError(f, StateGenerated)
	}
	a.mu.Unlock()
	if err != nil {
		return QRSession{}, err
	}
	if strings.TrimSpace(upiID) == "" {
		return QRSession{}, validationError("Please enter your UPI ID to generate a QR code")
	}

	if err := a.Sleep(ctx, a.GenerateDelay); err != nil {
		return QRSession{}, fmt.Errorf("Generate: %w", err)
	}

	link := DeepLink(a.PayeeVPA, a.PayeeName, f.Amount, f.FeeTitle)
	image, err := a.Renderer.Render(link)
	if err != nil {
		return QRSession{}, fmt.Errorf("Generate: render: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if f.State != StateCollecting {
		return QRSession{}, a.transitionError(f, StateGenerated)
	}
	now := a.Now()
	f.touched = now
	f.State = StateGenerated
	f.UPIID = upiID
	f.DeepLink = link
	f.ImageURL = image
	f.GeneratedAt = now
	if a.Expiry > 0 {
		f.ExpiresAt = now.Add(a.Expiry)
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("session_id", id).Str("state", string(f.State)).Msg("QR code generated")
	return f.QRSession, nil
}

// Confirm records the user's claim of having paid: qr-generated -> awaiting-confirmation.
func (a *QRAdapter) Confirm(id string) (QRSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := a.flow(id)
	if err != nil {
		return QRSession{}, err
	}
	if f.State != StateGenerated {
		return QRSession{}, a.transitionError(f, StateAwaiting)
	}
	if err := a.checkExpiry(f); err != nil {
		return QRSession{}, err
	}
	f.State = StateAwaiting
	f.touched = a.Now()
	return f.QRSession, nil
}

// Verify completes the flow from qr-generated or awaiting-confirmation and
// returns the payment result. verified is only reachable through a generated code.
func (a *QRAdapter) Verify(ctx context.Context, id string) (domain.PaymentResult, error) {
	a.mu.Lock()
	f, err := a.flow(id)
	if err == nil {
		if f.State != StateGenerated && f.State != StateAwaiting {
			err = a.transitionError(f, StateVerified)
		} else {
			err = a.checkExpiry(f)
		}
	}
	a.mu.Unlock()
	if err != nil {
		return domain.PaymentResult{}, err
	}

	if err := a.Sleep(ctx, a.VerifyDelay); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("Verify: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if f.State != StateGenerated && f.State != StateAwaiting {
		return domain.PaymentResult{}, a.transitionError(f, StateVerified)
	}
	result := domain.PaymentResult{
		Method:        domain.MethodQRCode,
		MethodLabel:   domain.MethodQRCode.Label(""),
		TransactionID: a.IDs.NewID("UPI"),
		Amount:        f.Amount,
		Date:          a.Now(),
		Details:       domain.PaymentDetails{UPIID: f.UPIID},
	}
	f.State = StateVerified
	f.Result = &result
	f.touched = result.Date
	f.attempt.finish(&result, nil)

	log := logger.FromContext(ctx)
	log.Info().Str("session_id", id).Str("transaction_id", result.TransactionID).Int64("amount", result.Amount).Msg("QR payment verified")
	return result, nil
}

// Regenerate returns any flow, including a verified one, to collecting-upi-id.
// The UPI id is kept; the code and any previous result are discarded.
func (a *QRAdapter) Regenerate(id string) (QRSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := a.flow(id)
	if err != nil {
		return QRSession{}, err
	}
	if f.State == StateVerified {
		f.attempt = newAttempt()
	}
	f.State = StateCollecting
	f.touched = a.Now()
	f.DeepLink = ""
	f.ImageURL = ""
	f.GeneratedAt = time.Time{}
	f.ExpiresAt = time.Time{}
	f.Result = nil
	return f.QRSession, nil
}

// Close abandons a flow. Waiters on an unverified flow get ErrCancelled.
func (a *QRAdapter) Close(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := a.flow(id)
	if err != nil {
		return err
	}
	delete(a.flows, id)
	f.attempt.finish(nil, ErrCancelled)
	return nil
}

// Initiate implements Adapter. It opens a flow named by req.SessionID (or a
// fresh id) and blocks until the flow is verified, closed, or ctx is done.
// When req.UPIID is set the code is generated immediately.
func (a *QRAdapter) Initiate(ctx context.Context, req Request) (domain.PaymentResult, error) {
	s, err := a.Open(req)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	if req.UPIID != "" {
		if _, err := a.Generate(ctx, s.ID, req.UPIID); err != nil {
			_ = a.Close(s.ID)
			return domain.PaymentResult{}, err
		}
	}

	a.mu.Lock()
	f, ok := a.flows[s.ID]
	var at *attempt
	if ok {
		at = f.attempt
	}
	a.mu.Unlock()
	if at == nil {
		return domain.PaymentResult{}, ErrCancelled
	}

	select {
	case <-at.done:
		if at.err != nil {
			return domain.PaymentResult{}, at.err
		}
		return *at.result, nil
	case <-ctx.Done():
		_ = a.Close(s.ID)
		return domain.PaymentResult{}, fmt.Errorf("Initiate: %w", ctx.Err())
	}
}

// Prune drops flows idle for longer than Retention and returns how many
// went. Waiters on a dropped flow get ErrCancelled. Open also prunes.
func (a *QRAdapter) Prune() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prune(a.Now())
}

func (a *QRAdapter) prune(now time.Time) int {
	if a.Retention <= 0 {
		return 0
	}
	n := 0
	for id, f := range a.flows {
		if now.Sub(f.touched) >= a.Retention {
			delete(a.flows, id)
			f.attempt.finish(nil, ErrCancelled)
			n++
		}
	}
	return n
}

// Len reports how many flows are held.
func (a *QRAdapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.flows)
}

func (a *QRAdapter) checkExpiry(f *qrFlow) error {
	if !f.ExpiresAt.IsZero() && !a.Now().Before(f.ExpiresAt) {
		return fmt.Errorf("%w: %s", ErrExpired, f.ID)
	}
	return nil
}

func (a *QRAdapter) transitionError(f *qrFlow, to QRState) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.State, to)
}

var _ Adapter = (*QRAdapter)(nil)
