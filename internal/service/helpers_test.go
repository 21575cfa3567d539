package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/parlakisik/event-escrow/internal/events"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/store"
	"github.com/parlakisik/event-escrow/internal/testutil"
)

var (
	alice  = model.ClientActor("client_alice")
	bob    = model.ClientActor("client_bob")
	lights = model.VendorActor("Lights & Sounds PH")
	other  = model.VendorActor("Other Vendor")
	agent  = model.AgentActor("agent_maya")
	agent2 = model.AgentActor("agent_leo")
	admin  = model.AdminActor("admin_ria", true)
	rookie = model.AdminActor("admin_new", false)
)

type recordedNote struct {
	message  string
	severity events.Severity
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (n *fakeNotifier) Notify(ctx context.Context, message string, severity events.Severity) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, recordedNote{message, severity})
	return nil
}

func (n *fakeNotifier) all() []recordedNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedNote(nil), n.notes...)
}

type fakeChats struct {
	logs map[string][]model.ChatMessage
	err  error
}

func (c fakeChats) GetChatLog(ctx context.Context, bookingID string) ([]model.ChatMessage, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.logs[bookingID], nil
}

type fakeDirectory struct {
	vendors []model.Vendor
	err     error
}

func (d fakeDirectory) LookupVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	return d.vendors, d.err
}

type testEnv struct {
	svc      *Service
	store    *store.MemoryStore
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T, mutate func(*Settings), opts ...Option) testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	ctx := context.Background()
	for _, v := range testutil.SampleVendors() {
		if err := st.SaveVendor(ctx, v); err != nil {
			t.Fatalf("seed vendor: %v", err)
		}
	}

	settings := DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}

	n := &fakeNotifier{}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	all := append([]Option{
		WithNotifier(n),
		WithClock(func() time.Time { return clock }),
	}, opts...)

	return testEnv{svc: New(st, settings, all...), store: st, notifier: n}
}

// seedBooking stores a booking directly, bypassing the lifecycle.
func (e testEnv) seedBooking(t *testing.T, b model.Booking) model.Booking {
	t.Helper()
	if err := e.store.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func (e testEnv) status(t *testing.T, id string) model.BookingStatus {
	t.Helper()
	b, err := e.store.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	return b.Status
}
