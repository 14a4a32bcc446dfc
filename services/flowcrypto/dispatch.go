package flowcrypto

import (
	"context"
	"errors"
	"fmt"

	"wellnessbot/database/ledger"
	"wellnessbot/models"

	"go.uber.org/zap"
)

// ErrUnknownAction is returned for actions the dispatcher does not handle.
// The boundary answers these with a plain error, never an encrypted body.
var ErrUnknownAction = errors.New("unknown action")

const (
	selectionScreen = "SELECT_COUNSELOR"
	successScreen   = "SUCCESS"

	// Shown when a counselor row has no image URL.
	placeholderImage = "https://placehold.co/150x150"
)

// Dispatcher routes decrypted flow payloads by action name and produces the
// plaintext response to be re-encrypted.
type Dispatcher struct {
	Ledger ledger.Ledger
	Logger *zap.Logger
}

// Dispatch handles ping, INIT and data_exchange actions.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.FlowRequest) (map[string]any, error) {
	switch req.Action {
	case "ping":
		return map[string]any{
			"data": map[string]any{"status": "active"},
		}, nil

	case "INIT":
		return d.handleInit(ctx)

	case "data_exchange":
		return d.handleDataExchange(req), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}

// handleInit builds the counselor selection screen.
func (d *Dispatcher) handleInit(ctx context.Context) (map[string]any, error) {
	counselors, err := d.Ledger.ListActiveCounselors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list counselors: %w", err)
	}

	department := make([]models.FlowDepartment, 0, len(counselors))
	for _, c := range counselors {
		image := c.ImageURL
		if image == "" {
			image = placeholderImage
		}
		department = append(department, models.FlowDepartment{
			ID:    c.ID,
			Title: c.Name,
			Image: image,
		})
	}

	return map[string]any{
		"screen": selectionScreen,
		"data": map[string]any{
			"department": department,
		},
	}, nil
}

// handleDataExchange closes the form, echoing the flow token and the
// selected counselor back as extension parameters.
func (d *Dispatcher) handleDataExchange(req models.FlowRequest) map[string]any {
	selected, _ := req.Data["department"].(string)
	if selected == "" {
		selected, _ = req.Data["counselor_id"].(string)
	}
	d.Logger.Info("flow data exchange",
		zap.String("flow_token", req.FlowToken),
		zap.String("counselor", selected))

	return map[string]any{
		"screen": successScreen,
		"data": map[string]any{
			"extension_message_response": map[string]any{
				"params": map[string]any{
					"flow_token":   req.FlowToken,
					"counselor_id": selected,
				},
			},
		},
	}
}
