package flowcrypto

import (
	"context"
	"testing"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// counselorLedger is a Ledger stub for dispatch tests; only counselor
// listing is exercised.
type counselorLedger struct {
	counselors []models.Counselor
}

func (c *counselorLedger) ListActiveCounselors(ctx context.Context) ([]models.Counselor, error) {
	return c.counselors, nil
}

func (c *counselorLedger) ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	return nil, nil
}
func (c *counselorLedger) CreateBookingHold(ctx context.Context, b models.Booking) error { return nil }
func (c *counselorLedger) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	return nil, ledger.ErrRecordNotFound
}
func (c *counselorLedger) UpdatePaymentStatus(ctx context.Context, id, status, orderID string) error {
	return nil
}
func (c *counselorLedger) UpdateDateTime(ctx context.Context, id, date, slot string) error {
	return nil
}
func (c *counselorLedger) Cancel(ctx context.Context, id string) error { return nil }
func (c *counselorLedger) CountPaidBookings(ctx context.Context, phone string) (int, error) {
	return 0, nil
}
func (c *counselorLedger) ListActiveBookings(ctx context.Context, phone string) ([]models.Booking, error) {
	return nil, nil
}

func newDispatcher(counselors ...models.Counselor) *Dispatcher {
	return &Dispatcher{
		Ledger: &counselorLedger{counselors: counselors},
		Logger: zap.NewNop(),
	}
}

func TestDispatchPing(t *testing.T) {
	d := newDispatcher()
	resp, err := d.Dispatch(context.Background(), models.FlowRequest{Action: "ping"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"status": "active"}}, resp)
}

func TestDispatchInit(t *testing.T) {
	d := newDispatcher(
		models.Counselor{ID: "1", Name: "Dr. Smith", ImageURL: "https://example.com/s.jpg", IsActive: true},
		models.Counselor{ID: "2", Name: "Dr. Jane", IsActive: true},
	)
	resp, err := d.Dispatch(context.Background(), models.FlowRequest{Action: "INIT"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT_COUNSELOR", resp["screen"])
	department := resp["data"].(map[string]any)["department"].([]models.FlowDepartment)
	require.Len(t, department, 2)
	assert.Equal(t, models.FlowDepartment{ID: "1", Title: "Dr. Smith", Image: "https://example.com/s.jpg"}, department[0])
	// Missing image URL falls back to the placeholder.
	assert.Equal(t, "2", department[1].ID)
	assert.NotEmpty(t, department[1].Image)
}

func TestDispatchDataExchange(t *testing.T) {
	d := newDispatcher()
	resp, err := d.Dispatch(context.Background(), models.FlowRequest{
		Action:    "data_exchange",
		FlowToken: "tok-123",
		Data:      map[string]any{"department": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SUCCESS", resp["screen"])
	params := resp["data"].(map[string]any)["extension_message_response"].(map[string]any)["params"].(map[string]any)
	assert.Equal(t, "tok-123", params["flow_token"])
	assert.Equal(t, "1", params["counselor_id"])
}

func TestDispatchUnknownAction(t *testing.T) {
	d := newDispatcher()
	_, err := d.Dispatch(context.Background(), models.FlowRequest{Action: "DELETE_EVERYTHING"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}
