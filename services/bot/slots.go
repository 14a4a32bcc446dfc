package bot

import "context"

// slotVocabulary is the fixed set of bookable times for every counselor.
var slotVocabulary = []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00"}

// availableSlots returns the vocabulary minus slots already bound to a PAID
// booking for the counselor on that date.
func (h *Handler) availableSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	booked, err := h.Ledger.ListPaidSlots(ctx, date, counselorID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, s := range booked {
		taken[s] = true
	}
	available := make([]string, 0, len(slotVocabulary))
	for _, s := range slotVocabulary {
		if !taken[s] {
			available = append(available, s)
		}
	}
	return available, nil
}
