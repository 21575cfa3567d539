package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/store"
	"github.com/shopspring/decimal"
)

// Notifier delivers operator-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string, severity events.Severity) error
}

// VendorDirectory looks up vendor records by category and optional city.
type VendorDirectory interface {
	LookupVendors(ctx context.Context, category, city string) ([]model.Vendor, error)
}

// ChatLogs returns the conversation attached to a booking.
type ChatLogs interface {
	GetChatLog(ctx context.Context, bookingID string) ([]model.ChatMessage, error)
}

// Settings holds the tunable business rules.
type Settings struct {
	CheckInRadiusMeters float64
	PlatformFeeRate     decimal.Decimal
	MobilizationRate    decimal.Decimal
	SplitRate           decimal.Decimal
	PaddingThreshold    decimal.Decimal
	DisputeReasonMinLen int
	AppealMinLen        int
	// CallTimeout bounds how long a caller waits for an operation. Zero waits forever.
	CallTimeout time.Duration
	// SimulatedLatency is the upper bound of the delay injected before each operation.
	SimulatedLatency time.Duration
	CategoryWeights  map[string]float64
}

func DefaultSettings() Settings {
	return Settings{
		CheckInRadiusMeters: 500,
		PlatformFeeRate:     decimal.RequireFromString("0.02"),
		MobilizationRate:    decimal.RequireFromString("0.20"),
		SplitRate:           decimal.RequireFromString("0.50"),
		PaddingThreshold:    decimal.RequireFromString("1.5"),
		DisputeReasonMinLen: 10,
		AppealMinLen:        10,
		CallTimeout:         10 * time.Second,
		CategoryWeights: map[string]float64{
			"Venue":           0.40,
			"Catering":        0.30,
			"Photography":     0.20,
			"Videography":     0.15,
			"Sounds & Lights": 0.15,
			"Host":            0.10,
		},
	}
}

type Service struct {
	store    store.Store
	settings Settings
	events   *events.Publisher
	notifier Notifier
	vendors  VendorDirectory
	chats    ChatLogs
	validate *validator.Validate
	now      func() time.Time

	// payoutMu serializes balance checks with payout creation.
	payoutMu sync.Mutex
}

type Option func(*Service)

func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithVendorDirectory replaces the store-backed directory with a remote one.
func WithVendorDirectory(d VendorDirectory) Option {
	return func(s *Service) { s.vendors = d }
}

func WithChatLogs(c ChatLogs) Option {
	return func(s *Service) { s.chats = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, settings Settings, opts ...Option) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	s := &Service{
		store:    st,
		settings: settings,
		vendors:  localDirectory{st},
		chats:    noChatLogs{},
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = events.NewPublisher("event-escrow")
	}
	if s.notifier == nil {
		s.notifier = s.events
	}

	slog.Info("escrow service initialized",
		"checkin_radius_m", settings.CheckInRadiusMeters,
		"platform_fee_rate", settings.PlatformFeeRate.String(),
		"call_timeout", settings.CallTimeout,
		"simulated_latency", settings.SimulatedLatency,
	)
	return s
}

type localDirectory struct {
	st store.VendorStore
}

func (d localDirectory) LookupVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	return d.st.ListVendors(ctx, category, city)
}

type noChatLogs struct{}

func (noChatLogs) GetChatLog(context.Context, string) ([]model.ChatMessage, error) {
	return nil, nil
}

// dispatch runs op as a single remote call. The operation itself is detached
// from ctx: once submitted it completes even if the caller stops waiting, in
// which case the caller receives ErrTransient and decides whether to retry.
func dispatch[T any](ctx context.Context, s *Service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	callCtx := context.WithoutCancel(ctx)

	go func() {
		if d := s.latency(); d > 0 {
			time.Sleep(d)
		}
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	var timeout <-chan time.Time
	if s.settings.CallTimeout > 0 {
		t := time.NewTimer(s.settings.CallTimeout)
		defer t.Stop()
		timeout = t.C
	}

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-timeout:
		slog.WarnContext(ctx, "call_timed_out", "operation", op, "timeout", s.settings.CallTimeout)
		return zero, fmt.Errorf("%s timed out after %s: %w", op, s.settings.CallTimeout, ErrTransient)
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w: %w", op, ErrTransient, ctx.Err())
	}
}

// latency is uniform in [max/2, max].
func (s *Service) latency() time.Duration {
	upper := s.settings.SimulatedLatency
	if upper <= 0 {
		return 0
	}
	half := upper / 2
	return half + rand.N(upper-half+1)
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return validationErr(err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType, subjectID string, data map[string]any) {
	_ = s.events.Publish(ctx, eventType, subjectID, data)
}

func (s *Service) notify(ctx context.Context, message string, severity events.Severity) {
	if err := s.notifier.Notify(ctx, message, severity); err != nil {
		slog.WarnContext(ctx, "notify_failed", "error", err)
	}
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// amount parses a stored decimal string. Empty means zero.
func amount(v string) decimal.Decimal {
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		slog.Warn("invalid stored amount", "value", v, "error", err)
		return decimal.Zero
	}
	return d
}

func requireRole(actor model.Actor, roles ...model.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return fmt.Errorf("role %q cannot perform this operation: %w", actor.Role, ErrForbidden)
}

// requireVerifiedAdmin separates "not an admin" from "admin not yet verified".
func requireVerifiedAdmin(actor model.Actor) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	if !actor.Verified {
		return fmt.Errorf("administrator %s must verify before deciding: %w", actor.ID, ErrVerificationRequired)
	}
	return nil
}
