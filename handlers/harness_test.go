package handlers

import (
	"context"
	"sync"

	"wellnessbot/database/ledger"
	"wellnessbot/models"
	"wellnessbot/services/bot"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubLedger backs handler tests with a couple of rows in memory.
type stubLedger struct {
	mu         sync.Mutex
	counselors []models.Counselor
	bookings   []*models.Booking
}

func (s *stubLedger) ListActiveCounselors(ctx context.Context) ([]models.Counselor, error) {
	return s.counselors, nil
}

func (s *stubLedger) ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	return nil, nil
}

func (s *stubLedger) CreateBookingHold(ctx context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := b
	s.bookings = append(s.bookings, &copied)
	return nil
}

func (s *stubLedger) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.BookingID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ledger.ErrRecordNotFound
}

func (s *stubLedger) UpdatePaymentStatus(ctx context.Context, id, status, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.BookingID == id {
			b.PaymentStatus = status
			if orderID != "" {
				b.RazorpayOrderID = orderID
			}
			return nil
		}
	}
	return ledger.ErrRecordNotFound
}

func (s *stubLedger) UpdateDateTime(ctx context.Context, id, date, slot string) error { return nil }
func (s *stubLedger) Cancel(ctx context.Context, id string) error                     { return nil }
func (s *stubLedger) CountPaidBookings(ctx context.Context, phone string) (int, error) {
	return 0, nil
}
func (s *stubLedger) ListActiveBookings(ctx context.Context, phone string) ([]models.Booking, error) {
	return nil, nil
}

// stubMessenger counts outbound messages.
type stubMessenger struct {
	mu    sync.Mutex
	texts int
	menus int
}

func (s *stubMessenger) SendText(ctx context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts++
	return nil
}

func (s *stubMessenger) SendImage(ctx context.Context, to, imageURL, caption string) error {
	return nil
}

func (s *stubMessenger) SendButtonMenu(ctx context.Context, to, bodyText string, buttons []models.Button) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus++
	return nil
}

func (s *stubMessenger) SendSelectionList(ctx context.Context, to, bodyText, buttonText string, sections []models.ListSection) error {
	return nil
}

type stubPayments struct{}

func (stubPayments) CreatePaymentLink(ctx context.Context, amountPaise int64, description, customerPhone, referenceID string) (string, error) {
	return "https://pay.test/" + referenceID, nil
}

func newTestBot(led *stubLedger, msgr *stubMessenger) *bot.Handler {
	return bot.NewHandler(led, msgr, stubPayments{}, bot.NewMemoryStore(0, nil), zap.NewNop())
}
