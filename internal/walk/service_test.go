package walk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/petmily/walk-service/internal/model"
)

// In-memory store fakes.  They mirror the repository contracts closely
// enough for service-level tests: CAS on status, sort-on-read tracks,
// upsert details.

type memBookings struct {
	items map[string]*model.Booking
}

func newMemBookings(bs ...*model.Booking) *memBookings {
	m := &memBookings{items: make(map[string]*model.Booking)}
	for _, b := range bs {
		cp := *b
		m.items[b.ID] = &cp
	}
	return m
}

func (m *memBookings) Find(_ context.Context, id string) (*model.Booking, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) FindByStatus(_ context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.items {
		if b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memBookings) Save(_ context.Context, b *model.Booking) error {
	stored, ok := m.items[b.ID]
	if !ok {
		return fmt.Errorf("%w: booking %s", ErrNotFound, b.ID)
	}
	cp := *b
	cp.Status = stored.Status // Save never changes status
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) error {
	b, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	if b.Status != from {
		return fmt.Errorf("%w: booking %s is %s, not %s", ErrInvalidState, id, b.Status, from)
	}
	b.Status = to
	return nil
}

type memTracks struct {
	points []model.TrackPoint
	nextID uint64
}

func (m *memTracks) Append(_ context.Context, p *model.TrackPoint) error {
	m.nextID++
	p.ID = m.nextID
	m.points = append(m.points, *p)
	return nil
}

func (m *memTracks) sorted(bookingID string) []model.TrackPoint {
	var out []model.TrackPoint
	for _, p := range m.points {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (m *memTracks) Latest(_ context.Context, bookingID string) (*model.TrackPoint, error) {
	pts := m.sorted(bookingID)
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no samples for booking %s", ErrNotFound, bookingID)
	}
	last := pts[len(pts)-1]
	return &last, nil
}

func (m *memTracks) Since(_ context.Context, bookingID string, after time.Time) ([]model.TrackPoint, error) {
	var out []model.TrackPoint
	for _, p := range m.sorted(bookingID) {
		if p.Timestamp.After(after) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memTracks) Recent(_ context.Context, bookingID string, limit int) ([]model.TrackPoint, error) {
	pts := m.sorted(bookingID)
	if len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	return pts, nil
}

func (m *memTracks) All(_ context.Context, bookingID string) ([]model.TrackPoint, error) {
	return m.sorted(bookingID), nil
}

type memDetails struct {
	items map[string]*model.WalkDetail
}

func newMemDetails() *memDetails {
	return &memDetails{items: make(map[string]*model.WalkDetail)}
}

func (m *memDetails) FindByBooking(_ context.Context, bookingID string) (*model.WalkDetail, error) {
	d, ok := m.items[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: no walk detail for booking %s", ErrNotFound, bookingID)
	}
	cp := *d
	return &cp, nil
}

func (m *memDetails) Save(_ context.Context, d *model.WalkDetail) error {
	cp := *d
	m.items[d.BookingID] = &cp
	return nil
}

type memUsers struct {
	items map[string]*model.User
}

func newMemUsers(us ...*model.User) *memUsers {
	m := &memUsers{items: make(map[string]*model.User)}
	for _, u := range us {
		m.items[u.ID] = u
	}
	return m
}

func (m *memUsers) Find(_ context.Context, id string) (*model.User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, nil
}

type sentNotification struct {
	Contact string
	Kind    NotificationKind
	Payload map[string]any
}

type captureNotifier struct {
	sent []sentNotification
	fail error
}

func (n *captureNotifier) Send(_ context.Context, contact string, kind NotificationKind, payload map[string]any) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentNotification{Contact: contact, Kind: kind, Payload: payload})
	return nil
}

type broadcastEvent struct {
	BookingID string
	Status    string
}

type captureBroadcaster struct {
	locations []model.TrackPoint
	statuses  []broadcastEvent
}

func (b *captureBroadcaster) PublishLocation(_ string, point model.TrackPoint) {
	b.locations = append(b.locations, point)
}

func (b *captureBroadcaster) PublishStatus(bookingID, status string, _ any) {
	b.statuses = append(b.statuses, broadcastEvent{BookingID: bookingID, Status: status})
}

// fixture wires a Service around in-memory fakes with one booking.
type fixture struct {
	svc      *Service
	bookings *memBookings
	tracks   *memTracks
	details  *memDetails
	notifier *captureNotifier
	hub      *captureBroadcaster
	booking  *model.Booking
	now      time.Time
}

func newFixture(t *testing.T, status model.BookingStatus) *fixture {
	t.Helper()
	booking := &model.Booking{
		ID:              "bk-1",
		OwnerID:         "owner-1",
		WalkerID:        "walker-1",
		PetID:           "pet-1",
		DurationMinutes: 60,
		Status:          status,
	}
	f := &fixture{
		bookings: newMemBookings(booking),
		tracks:   &memTracks{},
		details:  newMemDetails(),
		notifier: &captureNotifier{},
		hub:      &captureBroadcaster{},
		booking:  booking,
		now:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	users := newMemUsers(
		&model.User{ID: "owner-1", Phone: "010-1111-2222", EmergencyContactPhone: "010-9999-0000"},
		&model.User{ID: "walker-1", Phone: "010-3333-4444"},
	)
	f.svc = NewService(f.bookings, f.details, f.tracks, users, nil, f.hub, f.notifier, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestStartWalk(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)

	booking, detail, err := f.svc.StartWalk(context.Background(), "bk-1", "walker-1")
	if err != nil {
		t.Fatalf("StartWalk: %v", err)
	}
	if booking.Status != model.BookingInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", booking.Status)
	}
	if detail.ActualStartTime == nil || !detail.ActualStartTime.Equal(f.now) {
		t.Errorf("ActualStartTime = %v, want %v", detail.ActualStartTime, f.now)
	}
	if detail.WalkStatus != model.WalkInProgress {
		t.Errorf("WalkStatus = %s, want IN_PROGRESS", detail.WalkStatus)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != NotifyWalkStarted {
		t.Errorf("expected one WALK_STARTED notification, got %+v", f.notifier.sent)
	}
	if f.notifier.sent[0].Contact != "010-1111-2222" {
		t.Errorf("notification went to %s, want the owner's phone", f.notifier.sent[0].Contact)
	}
	if len(f.hub.statuses) != 1 || f.hub.statuses[0].Status != "STARTED" {
		t.Errorf("expected STARTED broadcast, got %+v", f.hub.statuses)
	}
}

func TestStartWalkOnlyWalker(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	if _, _, err := f.svc.StartWalk(context.Background(), "bk-1", "owner-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("owner starting walk: err = %v, want ErrForbidden", err)
	}
	if _, _, err := f.svc.StartWalk(context.Background(), "bk-1", "stranger"); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger starting walk: err = %v, want ErrForbidden", err)
	}
}

func TestStartWalkWrongState(t *testing.T) {
	f := newFixture(t, model.BookingPending)
	_, _, err := f.svc.StartWalk(context.Background(), "bk-1", "walker-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if len(f.notifier.sent) != 0 || len(f.hub.statuses) != 0 {
		t.Error("failed start must not notify or broadcast")
	}
	if _, err := f.details.FindByBooking(context.Background(), "bk-1"); !errors.Is(err, ErrNotFound) {
		t.Error("failed start must not create a walk detail")
	}
}

func TestStartWalkTwice(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	if _, _, err := f.svc.StartWalk(context.Background(), "bk-1", "walker-1"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, _, err := f.svc.StartWalk(context.Background(), "bk-1", "walker-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second start: err = %v, want ErrInvalidState", err)
	}
}

func TestRecordTrack(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)

	stored, err := f.svc.RecordTrack(context.Background(), "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780}, "walker-1")
	if err != nil {
		t.Fatalf("RecordTrack: %v", err)
	}
	if stored.BookingID != "bk-1" {
		t.Errorf("BookingID = %s", stored.BookingID)
	}
	if !stored.Timestamp.Equal(f.now) {
		t.Errorf("missing timestamp should default to now, got %v", stored.Timestamp)
	}
	if stored.TrackType != model.TrackWalking {
		t.Errorf("missing track type should default to WALKING, got %s", stored.TrackType)
	}
	if len(f.hub.locations) != 1 {
		t.Errorf("expected one location broadcast, got %d", len(f.hub.locations))
	}
}

func TestRecordTrackValidation(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()

	// Missing coordinates.
	if _, err := f.svc.RecordTrack(ctx, "bk-1", model.TrackPoint{}, "walker-1"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("zero coordinates: err = %v, want ErrInvalidRequest", err)
	}
	// Out-of-range latitude.
	if _, err := f.svc.RecordTrack(ctx, "bk-1", model.TrackPoint{Latitude: 95, Longitude: 10}, "walker-1"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("latitude 95: err = %v, want ErrInvalidRequest", err)
	}
	// Owner cannot stream.
	if _, err := f.svc.RecordTrack(ctx, "bk-1", model.TrackPoint{Latitude: 37.5, Longitude: 127}, "owner-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("owner streaming: err = %v, want ErrForbidden", err)
	}
	if len(f.tracks.points) != 0 {
		t.Errorf("rejected samples must not be stored, found %d", len(f.tracks.points))
	}
}

func TestRecordTrackNotInProgress(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	_, err := f.svc.RecordTrack(context.Background(), "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780}, "walker-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestRecordTrackSuspectSampleStillStored(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()

	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780}, "walker-1"); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	// A kilometer away ten seconds later implies ~500 km/h.  The flag is
	// advisory, so the sample still lands.
	f.now = f.now.Add(10 * time.Second)
	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5765, Longitude: 126.9880}, "walker-1"); err != nil {
		t.Fatalf("suspect sample rejected: %v", err)
	}
	if len(f.tracks.points) != 2 {
		t.Errorf("stored %d samples, want 2", len(f.tracks.points))
	}
}

func TestCompleteWalk(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	ctx := context.Background()

	if _, _, err := f.svc.StartWalk(ctx, "bk-1", "walker-1"); err != nil {
		t.Fatalf("StartWalk: %v", err)
	}
	// Two samples a hundredth of a degree apart, ten minutes in between.
	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780}, "walker-1"); err != nil {
		t.Fatalf("RecordTrack: %v", err)
	}
	f.now = f.now.Add(10 * time.Minute)
	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5765, Longitude: 126.9880}, "walker-1"); err != nil {
		t.Fatalf("RecordTrack: %v", err)
	}

	booking, detail, stats, err := f.svc.CompleteWalk(ctx, "bk-1", EndRequest{SpecialNotes: "met a friendly poodle"}, "walker-1")
	if err != nil {
		t.Fatalf("CompleteWalk: %v", err)
	}
	if booking.Status != model.BookingCompleted {
		t.Errorf("status = %s, want COMPLETED", booking.Status)
	}
	if detail.WalkStatus != model.WalkCompleted {
		t.Errorf("WalkStatus = %s, want COMPLETED", detail.WalkStatus)
	}
	if detail.ActualEndTime == nil || !detail.ActualEndTime.Equal(f.now) {
		t.Errorf("ActualEndTime = %v, want %v", detail.ActualEndTime, f.now)
	}
	if detail.SpecialIncidents != "met a friendly poodle" {
		t.Errorf("SpecialIncidents = %q", detail.SpecialIncidents)
	}
	if stats.TotalDistanceKM < 1.3 || stats.TotalDistanceKM > 1.5 {
		t.Errorf("TotalDistanceKM = %f, want ~1.4", stats.TotalDistanceKM)
	}
	if detail.TotalDistanceKM != stats.TotalDistanceKM {
		t.Error("detail distance must match computed statistics")
	}
	if stats.DurationMinutes != 10 {
		t.Errorf("DurationMinutes = %d, want 10", stats.DurationMinutes)
	}

	var kinds []NotificationKind
	for _, n := range f.notifier.sent {
		kinds = append(kinds, n.Kind)
	}
	if len(kinds) != 2 || kinds[1] != NotifyWalkCompleted {
		t.Errorf("notifications = %v, want [WALK_STARTED WALK_COMPLETED]", kinds)
	}
	last := f.hub.statuses[len(f.hub.statuses)-1]
	if last.Status != "COMPLETED" {
		t.Errorf("last broadcast = %s, want COMPLETED", last.Status)
	}
}

func TestCompleteWalkWrongState(t *testing.T) {
	f := newFixture(t, model.BookingPending)
	_, _, _, err := f.svc.CompleteWalk(context.Background(), "bk-1", EndRequest{}, "walker-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if _, err := f.details.FindByBooking(context.Background(), "bk-1"); !errors.Is(err, ErrNotFound) {
		t.Error("failed completion must not create a walk detail")
	}
}

func TestCompleteWalkBackfillsStart(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	_, detail, _, err := f.svc.CompleteWalk(context.Background(), "bk-1", EndRequest{}, "walker-1")
	if err != nil {
		t.Fatalf("CompleteWalk: %v", err)
	}
	want := f.now.Add(-60 * time.Minute)
	if detail.ActualStartTime == nil || !detail.ActualStartTime.Equal(want) {
		t.Errorf("backfilled start = %v, want %v", detail.ActualStartTime, want)
	}
}

func TestRequestTermination(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	booking, err := f.svc.RequestTermination(context.Background(), "bk-1", "owner-1", "pet seems tired")
	if err != nil {
		t.Fatalf("RequestTermination: %v", err)
	}
	if booking.Status != model.BookingInProgress {
		t.Errorf("termination request must not change status, got %s", booking.Status)
	}
	if booking.Notes == "" {
		t.Error("expected a note recording the request")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != NotifyTerminationRequest {
		t.Errorf("expected TERMINATION_REQUEST to the walker, got %+v", f.notifier.sent)
	}
	if f.notifier.sent[0].Contact != "010-3333-4444" {
		t.Errorf("notification went to %s, want the walker's phone", f.notifier.sent[0].Contact)
	}
}

func TestRequestTerminationOnlyInProgress(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	if _, err := f.svc.RequestTermination(context.Background(), "bk-1", "owner-1", "x"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestInitiateEmergencyCall(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()

	number, err := f.svc.InitiateEmergencyCall(ctx, "bk-1", "walker-1", EmergencyPolice, "Han river park", "dog ran off")
	if err != nil {
		t.Fatalf("police call: %v", err)
	}
	if number != "112" {
		t.Errorf("police number = %s, want 112", number)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != NotifyEmergency {
		t.Errorf("expected EMERGENCY notification, got %+v", f.notifier.sent)
	}

	number, err = f.svc.InitiateEmergencyCall(ctx, "bk-1", "walker-1", EmergencyFire, "", "")
	if err != nil || number != "119" {
		t.Errorf("fire call = %s, %v, want 119", number, err)
	}

	number, err = f.svc.InitiateEmergencyCall(ctx, "bk-1", "walker-1", EmergencyContact, "", "")
	if err != nil {
		t.Fatalf("contact call: %v", err)
	}
	if number != "010-9999-0000" {
		t.Errorf("contact number = %s, want the owner's emergency contact", number)
	}

	if _, err := f.svc.InitiateEmergencyCall(ctx, "bk-1", "walker-1", "SOMETHING", "", ""); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown type: err = %v, want ErrInvalidRequest", err)
	}
}

func TestInitiateEmergencyCallNoContact(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	// Replace the owner with one who has no emergency contact on file.
	f.svc.users = newMemUsers(
		&model.User{ID: "owner-1", Phone: "010-1111-2222"},
		&model.User{ID: "walker-1", Phone: "010-3333-4444"},
	)
	_, err := f.svc.InitiateEmergencyCall(context.Background(), "bk-1", "walker-1", EmergencyContact, "", "")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestWalkPathSortsOutOfOrderSamples(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()
	base := f.now

	// Samples arrive out of order (mobile clients batch and retry).
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		p := model.TrackPoint{
			BookingID: "bk-1",
			Latitude:  37.5665,
			Longitude: 126.9780,
			Timestamp: base.Add(offset),
		}
		if err := f.tracks.Append(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}

	points, _, err := f.svc.WalkPath(ctx, "bk-1", "owner-1")
	if err != nil {
		t.Fatalf("WalkPath: %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp) {
			t.Fatalf("path not sorted at index %d", i)
		}
	}
}

func TestRealtimeSince(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()
	base := f.now

	for i := 0; i < 3; i++ {
		p := model.TrackPoint{
			BookingID: "bk-1",
			Latitude:  37.5665,
			Longitude: 126.9780,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := f.tracks.Append(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}

	points, err := f.svc.RealtimeSince(ctx, "bk-1", base, "owner-1")
	if err != nil {
		t.Fatalf("RealtimeSince: %v", err)
	}
	// Strictly after base: the first sample is excluded.
	if len(points) != 2 {
		t.Errorf("got %d points, want 2", len(points))
	}
}

func TestUploadPhoto(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()

	detail, err := f.svc.UploadPhoto(ctx, "bk-1", "walker-1", "start", "https://cdn.example.com/p1.jpg")
	if err != nil {
		t.Fatalf("UploadPhoto: %v", err)
	}
	if detail.StartPhotoURL != "https://cdn.example.com/p1.jpg" {
		t.Errorf("StartPhotoURL = %q", detail.StartPhotoURL)
	}

	if _, err := f.svc.UploadPhoto(ctx, "bk-1", "walker-1", "SIDEWAYS", "https://cdn.example.com/p2.jpg"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad slot: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := f.svc.UploadPhoto(ctx, "bk-1", "walker-1", "END", ""); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty url: err = %v, want ErrInvalidRequest", err)
	}
}

func TestStatusSnapshot(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	ctx := context.Background()

	if _, _, err := f.svc.StartWalk(ctx, "bk-1", "walker-1"); err != nil {
		t.Fatalf("StartWalk: %v", err)
	}

	// No samples yet.
	if _, err := f.svc.StatusSnapshot(ctx, "bk-1", "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("no samples: err = %v, want ErrNotFound", err)
	}

	speed := 4.5
	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780, Speed: &speed}, "walker-1"); err != nil {
		t.Fatalf("RecordTrack: %v", err)
	}

	f.now = f.now.Add(25 * time.Minute)
	snap, err := f.svc.StatusSnapshot(ctx, "bk-1", "owner-1")
	if err != nil {
		t.Fatalf("StatusSnapshot: %v", err)
	}
	if snap.ElapsedMinutes != 25 {
		t.Errorf("ElapsedMinutes = %d, want 25", snap.ElapsedMinutes)
	}
	if snap.RemainingMinutes != 35 {
		t.Errorf("RemainingMinutes = %d, want 35", snap.RemainingMinutes)
	}
	if snap.CurrentSpeedKMH == nil || *snap.CurrentSpeedKMH != speed {
		t.Errorf("CurrentSpeedKMH = %v, want %f", snap.CurrentSpeedKMH, speed)
	}
	if snap.WalkStatus != model.WalkInProgress {
		t.Errorf("WalkStatus = %s", snap.WalkStatus)
	}

	// Overtime walks floor remaining at zero.
	f.now = f.now.Add(2 * time.Hour)
	snap, err = f.svc.StatusSnapshot(ctx, "bk-1", "owner-1")
	if err != nil {
		t.Fatalf("StatusSnapshot overtime: %v", err)
	}
	if snap.RemainingMinutes != 0 {
		t.Errorf("RemainingMinutes = %d, want 0", snap.RemainingMinutes)
	}
}

func TestStatusSnapshotGeocode(t *testing.T) {
	f := newFixture(t, model.BookingInProgress)
	ctx := context.Background()
	f.svc.geocode = func(_ context.Context, lat, lon float64) (AddressInfo, error) {
		return AddressInfo{Address: "Jongno-gu, Seoul", Region: "Seoul"}, nil
	}
	if err := f.details.Save(ctx, &model.WalkDetail{BookingID: "bk-1", WalkStatus: model.WalkInProgress}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordTrack(ctx, "bk-1",
		model.TrackPoint{Latitude: 37.5665, Longitude: 126.9780}, "walker-1"); err != nil {
		t.Fatal(err)
	}
	snap, err := f.svc.StatusSnapshot(ctx, "bk-1", "owner-1")
	if err != nil {
		t.Fatalf("StatusSnapshot: %v", err)
	}
	if snap.CurrentAddress == nil || snap.CurrentAddress.Address != "Jongno-gu, Seoul" {
		t.Errorf("CurrentAddress = %+v", snap.CurrentAddress)
	}
}

func TestNoopGeocoder(t *testing.T) {
	addr, err := NoopGeocoder(context.Background(), 37.5665, 126.978)
	if err != nil {
		t.Fatalf("NoopGeocoder: %v", err)
	}
	if addr.Address != "37.56650, 126.97800" {
		t.Errorf("Address = %q", addr.Address)
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, model.BookingConfirmed)
	f.notifier.fail = errors.New("broker down")
	if _, _, err := f.svc.StartWalk(context.Background(), "bk-1", "walker-1"); err != nil {
		t.Fatalf("StartWalk must survive notifier failure: %v", err)
	}
	b, _ := f.bookings.Find(context.Background(), "bk-1")
	if b.Status != model.BookingInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", b.Status)
	}
}
