package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/walk"
)

// In-memory fakes for the booking store contracts.

type memStore struct {
	items map[string]*model.Booking
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*model.Booking)}
}

func (m *memStore) Create(_ context.Context, b *model.Booking) error {
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memStore) Find(_ context.Context, id string) (*model.Booking, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", walk.ErrNotFound, id)
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) FindByStatus(_ context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.items {
		if b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) FindApplications(_ context.Context, openRequestID string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.items {
		if b.OpenRequestID == openRequestID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, b *model.Booking) error {
	stored, ok := m.items[b.ID]
	if !ok {
		return fmt.Errorf("%w: booking %s", walk.ErrNotFound, b.ID)
	}
	cp := *b
	cp.Status = stored.Status
	m.items[b.ID] = &cp
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) error {
	b, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", walk.ErrNotFound, id)
	}
	if b.Status != from {
		return fmt.Errorf("%w: booking %s is %s, not %s", walk.ErrInvalidState, id, b.Status, from)
	}
	b.Status = to
	return nil
}

type memChanges struct {
	items map[string]*model.BookingChangeRequest
}

func newMemChanges() *memChanges {
	return &memChanges{items: make(map[string]*model.BookingChangeRequest)}
}

func (m *memChanges) Create(_ context.Context, r *model.BookingChangeRequest) error {
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memChanges) Find(_ context.Context, id string) (*model.BookingChangeRequest, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: change request %s", walk.ErrNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *memChanges) ListByBooking(_ context.Context, bookingID string) ([]*model.BookingChangeRequest, error) {
	var out []*model.BookingChangeRequest
	for _, r := range m.items {
		if r.BookingID == bookingID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memChanges) Update(_ context.Context, r *model.BookingChangeRequest) error {
	if _, ok := m.items[r.ID]; !ok {
		return fmt.Errorf("%w: change request %s", walk.ErrNotFound, r.ID)
	}
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

type memUsers struct {
	items map[string]*model.User
}

func (m *memUsers) Find(_ context.Context, id string) (*model.User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", walk.ErrNotFound, id)
	}
	return u, nil
}

type sentNotification struct {
	Contact string
	Kind    walk.NotificationKind
}

type captureNotifier struct {
	sent []sentNotification
}

func (n *captureNotifier) Send(_ context.Context, contact string, kind walk.NotificationKind, _ map[string]any) error {
	n.sent = append(n.sent, sentNotification{Contact: contact, Kind: kind})
	return nil
}

type fixture struct {
	svc      *Service
	store    *memStore
	changes  *memChanges
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		changes:  newMemChanges(),
		notifier: &captureNotifier{},
	}
	users := &memUsers{items: map[string]*model.User{
		"owner-1":  {ID: "owner-1", Phone: "010-1111-2222"},
		"walker-1": {ID: "walker-1", Phone: "010-3333-4444"},
		"walker-2": {ID: "walker-2", Phone: "010-5555-6666"},
		"walker-3": {ID: "walker-3", Email: "walker3@example.com"},
	}}
	f.svc = NewService(f.store, f.changes, users, f.notifier)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return f
}

func validRequest() CreateRequest {
	return CreateRequest{
		PetID:           "pet-1",
		Date:            time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		TotalPrice:      25000,
	}
}

func TestCreateDirect(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.WalkerID = "walker-1"

	b, err := f.svc.CreateDirect(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	if b.ID == "" {
		t.Error("expected a generated booking ID")
	}
	if b.Status != model.BookingPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	if b.Method != model.MethodWalkerSelection {
		t.Errorf("method = %s, want WALKER_SELECTION", b.Method)
	}
	if b.WalkerID != "walker-1" {
		t.Errorf("walker = %s", b.WalkerID)
	}
}

func TestCreateDirectRequiresWalker(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateDirect(context.Background(), "owner-1", validRequest())
	if !errors.Is(err, walk.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestAcceptReject(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.WalkerID = "walker-1"
	b, err := f.svc.CreateDirect(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatal(err)
	}

	// A different walker cannot decide.
	if _, err := f.svc.Accept(context.Background(), b.ID, "walker-2"); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("foreign walker: err = %v, want ErrForbidden", err)
	}

	accepted, err := f.svc.Accept(context.Background(), b.ID, "walker-1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != model.BookingConfirmed {
		t.Errorf("status = %s, want CONFIRMED", accepted.Status)
	}

	// Already confirmed; rejecting now is an invalid transition.
	if _, err := f.svc.Reject(context.Background(), b.ID, "walker-1"); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("reject after accept: err = %v, want ErrInvalidState", err)
	}
}

func TestOpenRequestApplicationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.svc.CreateOpenRequest(ctx, "owner-1", validRequest())
	if err != nil {
		t.Fatalf("CreateOpenRequest: %v", err)
	}
	if open.Method != model.MethodOpenRequest || open.WalkerID != "" {
		t.Fatalf("unexpected open request: %+v", open)
	}

	price := 30000.0
	app1, err := f.svc.Apply(ctx, open.ID, "walker-1", &price)
	if err != nil {
		t.Fatalf("first application: %v", err)
	}
	if app1.Status != model.BookingWalkerApplied {
		t.Errorf("application status = %s, want WALKER_APPLIED", app1.Status)
	}
	if app1.TotalPrice != price {
		t.Errorf("proposed price = %f, want %f", app1.TotalPrice, price)
	}
	if app1.OpenRequestID != open.ID {
		t.Errorf("OpenRequestID = %s, want %s", app1.OpenRequestID, open.ID)
	}

	app2, err := f.svc.Apply(ctx, open.ID, "walker-2", nil)
	if err != nil {
		t.Fatalf("second application: %v", err)
	}
	if app2.TotalPrice != open.TotalPrice {
		t.Errorf("no proposed price should keep the listed price, got %f", app2.TotalPrice)
	}

	// Duplicate application by the same walker.
	if _, err := f.svc.Apply(ctx, open.ID, "walker-1", nil); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("duplicate application: err = %v, want ErrInvalidState", err)
	}
	// The owner cannot apply to their own request.
	if _, err := f.svc.Apply(ctx, open.ID, "owner-1", nil); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("owner applying: err = %v, want ErrForbidden", err)
	}
}

func TestAcceptApplicationSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.svc.CreateOpenRequest(ctx, "owner-1", validRequest())
	if err != nil {
		t.Fatal(err)
	}
	app1, err := f.svc.Apply(ctx, open.ID, "walker-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	app2, err := f.svc.Apply(ctx, open.ID, "walker-2", nil)
	if err != nil {
		t.Fatal(err)
	}
	app3, err := f.svc.Apply(ctx, open.ID, "walker-3", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Only the owner may accept.
	if _, err := f.svc.AcceptApplication(ctx, app2.ID, "walker-1"); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("non-owner accepting: err = %v, want ErrForbidden", err)
	}

	winner, err := f.svc.AcceptApplication(ctx, app2.ID, "owner-1")
	if err != nil {
		t.Fatalf("AcceptApplication: %v", err)
	}
	if winner.Status != model.BookingConfirmed {
		t.Errorf("winner status = %s, want CONFIRMED", winner.Status)
	}

	// Exactly one winner: the siblings are rejected and the parent closed.
	for _, loser := range []string{app1.ID, app3.ID} {
		b, err := f.store.Find(ctx, loser)
		if err != nil {
			t.Fatal(err)
		}
		if b.Status != model.BookingRejected {
			t.Errorf("sibling %s status = %s, want REJECTED", loser, b.Status)
		}
	}
	parent, err := f.store.Find(ctx, open.ID)
	if err != nil {
		t.Fatal(err)
	}
	if parent.Status != model.BookingCancelled {
		t.Errorf("parent status = %s, want CANCELLED", parent.Status)
	}

	// Accepting a second application afterwards must fail.
	if _, err := f.svc.AcceptApplication(ctx, app1.ID, "owner-1"); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("second accept: err = %v, want ErrInvalidState", err)
	}
	// And nobody can apply to the closed request.
	if _, err := f.svc.Apply(ctx, open.ID, "walker-3", nil); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("late application: err = %v, want ErrInvalidState", err)
	}
}

func TestRejectApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.svc.CreateOpenRequest(ctx, "owner-1", validRequest())
	if err != nil {
		t.Fatal(err)
	}
	app, err := f.svc.Apply(ctx, open.ID, "walker-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	rejected, err := f.svc.RejectApplication(ctx, app.ID, "owner-1")
	if err != nil {
		t.Fatalf("RejectApplication: %v", err)
	}
	if rejected.Status != model.BookingRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	// The open request stays open for other walkers.
	parent, _ := f.store.Find(ctx, open.ID)
	if parent.Status != model.BookingPending {
		t.Errorf("parent status = %s, want PENDING", parent.Status)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validRequest()
	req.WalkerID = "walker-1"
	b, err := f.svc.CreateDirect(ctx, "owner-1", req)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Cancel(ctx, b.ID, "stranger"); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("stranger cancelling: err = %v, want ErrForbidden", err)
	}

	cancelled, err := f.svc.Cancel(ctx, b.ID, "owner-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.BookingCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Terminal bookings cannot be cancelled again.
	if _, err := f.svc.Cancel(ctx, b.ID, "owner-1"); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("double cancel: err = %v, want ErrInvalidState", err)
	}
}

func TestChangeRequestWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validRequest()
	req.WalkerID = "walker-1"
	b, err := f.svc.CreateDirect(ctx, "owner-1", req)
	if err != nil {
		t.Fatal(err)
	}

	// An empty proposal is rejected outright.
	if _, err := f.svc.RequestChange(ctx, b.ID, "owner-1", ChangeProposal{Reason: "nothing"}); !errors.Is(err, walk.ErrInvalidRequest) {
		t.Errorf("empty proposal: err = %v, want ErrInvalidRequest", err)
	}

	newDuration := 90
	newPrice := 35000.0
	change, err := f.svc.RequestChange(ctx, b.ID, "owner-1", ChangeProposal{
		NewDurationMinutes: &newDuration,
		NewPrice:           &newPrice,
		Reason:             "vet recommended longer walks",
	})
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	if change.Status != model.ChangePending {
		t.Errorf("status = %s, want PENDING", change.Status)
	}
	// The walker was notified.
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != walk.NotifyChangeRequest {
		t.Errorf("notifications = %+v, want one CHANGE_REQUEST", f.notifier.sent)
	}
	if f.notifier.sent[0].Contact != "010-3333-4444" {
		t.Errorf("notified %s, want the walker", f.notifier.sent[0].Contact)
	}

	// The requester cannot resolve their own request.
	if _, err := f.svc.RespondToChange(ctx, change.ID, "owner-1", true, ""); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("self-resolve: err = %v, want ErrForbidden", err)
	}

	resolved, err := f.svc.RespondToChange(ctx, change.ID, "walker-1", true, "fine by me")
	if err != nil {
		t.Fatalf("RespondToChange: %v", err)
	}
	if resolved.Status != model.ChangeApproved {
		t.Errorf("status = %s, want APPROVED", resolved.Status)
	}
	if resolved.ResponderNote != "fine by me" {
		t.Errorf("note = %q", resolved.ResponderNote)
	}

	// Approving applied the fields to the booking.
	updated, err := f.store.Find(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.DurationMinutes != newDuration {
		t.Errorf("duration = %d, want %d", updated.DurationMinutes, newDuration)
	}
	if updated.TotalPrice != newPrice {
		t.Errorf("price = %f, want %f", updated.TotalPrice, newPrice)
	}

	// A resolved request cannot be resolved twice.
	if _, err := f.svc.RespondToChange(ctx, change.ID, "walker-1", false, ""); !errors.Is(err, walk.ErrInvalidState) {
		t.Errorf("double resolve: err = %v, want ErrInvalidState", err)
	}
}

func TestChangeRequestRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validRequest()
	req.WalkerID = "walker-1"
	b, err := f.svc.CreateDirect(ctx, "owner-1", req)
	if err != nil {
		t.Fatal(err)
	}
	newPrice := 50000.0
	change, err := f.svc.RequestChange(ctx, b.ID, "walker-1", ChangeProposal{NewPrice: &newPrice, Reason: "distance"})
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := f.svc.RespondToChange(ctx, change.ID, "owner-1", false, "too expensive")
	if err != nil {
		t.Fatalf("RespondToChange: %v", err)
	}
	if resolved.Status != model.ChangeRejected {
		t.Errorf("status = %s, want REJECTED", resolved.Status)
	}
	// Rejection leaves the booking untouched.
	updated, _ := f.store.Find(ctx, b.ID)
	if updated.TotalPrice != b.TotalPrice {
		t.Errorf("price changed to %f on rejection", updated.TotalPrice)
	}
}

func TestApplicationsVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open, err := f.svc.CreateOpenRequest(ctx, "owner-1", validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Apply(ctx, open.ID, "walker-1", nil); err != nil {
		t.Fatal(err)
	}

	apps, err := f.svc.Applications(ctx, open.ID, "owner-1")
	if err != nil {
		t.Fatalf("Applications: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("got %d applications, want 1", len(apps))
	}
	if _, err := f.svc.Applications(ctx, open.ID, "walker-1"); !errors.Is(err, walk.ErrForbidden) {
		t.Errorf("non-owner listing: err = %v, want ErrForbidden", err)
	}
}
