package bot

import (
	"context"
	"sync"
	"time"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"go.uber.org/zap"
)

// fakeLedger is an in-memory Ledger with call counters for asserting that
// failed operations perform no mutations.
type fakeLedger struct {
	mu         sync.Mutex
	counselors []models.Counselor
	bookings   []*models.Booking

	holdCalls   int
	updateCalls int
}

func (f *fakeLedger) ListActiveCounselors(ctx context.Context) ([]models.Counselor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []models.Counselor
	for _, c := range f.counselors {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (f *fakeLedger) ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slots []string
	for _, b := range f.bookings {
		if b.Date == date && b.CounselorID == counselorID && b.PaymentStatus == models.PaymentPaid {
			slots = append(slots, b.TimeSlot)
		}
	}
	return slots, nil
}

func (f *fakeLedger) CreateBookingHold(ctx context.Context, b models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdCalls++
	copied := b
	f.bookings = append(f.bookings, &copied)
	return nil
}

func (f *fakeLedger) FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingID == bookingID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ledger.ErrRecordNotFound
}

func (f *fakeLedger) UpdatePaymentStatus(ctx context.Context, bookingID, status, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingID == bookingID {
			f.updateCalls++
			b.PaymentStatus = status
			if orderID != "" {
				b.RazorpayOrderID = orderID
			}
			return nil
		}
	}
	return ledger.ErrRecordNotFound
}

func (f *fakeLedger) UpdateDateTime(ctx context.Context, bookingID, date, timeSlot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingID == bookingID {
			f.updateCalls++
			b.Date = date
			b.TimeSlot = timeSlot
			return nil
		}
	}
	return ledger.ErrRecordNotFound
}

func (f *fakeLedger) Cancel(ctx context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingID == bookingID {
			f.updateCalls++
			b.BookingStatus = models.BookingCancelled
			return nil
		}
	}
	return ledger.ErrRecordNotFound
}

func (f *fakeLedger) CountPaidBookings(ctx context.Context, userPhone string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, b := range f.bookings {
		if b.UserPhone == userPhone && b.PaymentStatus == models.PaymentPaid {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) ListActiveBookings(ctx context.Context, userPhone string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []models.Booking
	for _, b := range f.bookings {
		if b.UserPhone == userPhone && b.PaymentStatus == models.PaymentPaid && b.IsActive() {
			active = append(active, *b)
		}
	}
	return active, nil
}

type sentMenu struct {
	body    string
	buttons []models.Button
}

type sentList struct {
	body     string
	button   string
	sections []models.ListSection
}

// fakeMessenger records every outbound message.
type fakeMessenger struct {
	mu     sync.Mutex
	texts  []string
	images []string
	menus  []sentMenu
	lists  []sentList
}

func (f *fakeMessenger) SendText(ctx context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendImage(ctx context.Context, to, imageURL, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, imageURL)
	return nil
}

func (f *fakeMessenger) SendButtonMenu(ctx context.Context, to, bodyText string, buttons []models.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menus = append(f.menus, sentMenu{body: bodyText, buttons: buttons})
	return nil
}

func (f *fakeMessenger) SendSelectionList(ctx context.Context, to, bodyText, buttonText string, sections []models.ListSection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, sentList{body: bodyText, button: buttonText, sections: sections})
	return nil
}

func (f *fakeMessenger) lastList() sentList {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[len(f.lists)-1]
}

// fakePayments issues deterministic links.
type fakePayments struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePayments) CreatePaymentLink(ctx context.Context, amountPaise int64, description, customerPhone, referenceID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "https://pay.test/" + referenceID, nil
}

type harness struct {
	handler   *Handler
	ledger    *fakeLedger
	messenger *fakeMessenger
	payments  *fakePayments
	sessions  *MemoryStore
}

func newHarness(led *fakeLedger) *harness {
	msgr := &fakeMessenger{}
	pay := &fakePayments{}
	clock := func() time.Time {
		return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	sessions := NewMemoryStore(0, clock)
	h := NewHandler(led, msgr, pay, sessions, zap.NewNop())
	h.Clock = clock
	return &harness{handler: h, ledger: led, messenger: msgr, payments: pay, sessions: sessions}
}

func (h *harness) state(phone string) models.SessionState {
	sess, _ := h.sessions.Get(context.Background(), phone)
	if sess == nil {
		return ""
	}
	return sess.State
}
