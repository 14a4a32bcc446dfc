package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wellnessbot/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	counselorsSheet = "Counselors"
	bookingsSheet   = "Bookings"

	// Bookings column positions (1-based, matching the sheet layout):
	// booking_id, user_phone, counselor_id, date, time_slot,
	// payment_status, razorpay_order_id, timestamp, booking_status.
	colPaymentStatus = "F"
	colOrderID       = "G"
	colDate          = "D"
	colTimeSlot      = "E"
	colBookingStatus = "I"
)

// SheetsLedger stores counselors and bookings in a Google Spreadsheet, one
// worksheet per entity.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsLedger builds a ledger over the given spreadsheet using a service
// account credentials file.
func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsLedger, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	l := &SheetsLedger{svc: svc, spreadsheetID: spreadsheetID}
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// ensureSchema creates the Counselors and Bookings worksheets with headers
// (plus seed counselors) when they are missing.
func (l *SheetsLedger) ensureSchema(ctx context.Context) error {
	ss, err := l.svc.Spreadsheets.Get(l.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	existing := make(map[string]bool)
	for _, sh := range ss.Sheets {
		existing[sh.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, title := range []string{counselorsSheet, bookingsSheet} {
		if !existing[title] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			})
		}
	}
	if len(requests) > 0 {
		_, err := l.svc.Spreadsheets.BatchUpdate(l.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to add worksheets: %w", err)
		}
	}

	if !existing[counselorsSheet] {
		seed := [][]interface{}{
			{"id", "name", "image_url", "description", "is_active"},
			{"1", "Dr. Smith", "https://example.com/dr_smith.jpg", "Expert Psychologist", "TRUE"},
			{"2", "Dr. Jane", "https://example.com/dr_jane.jpg", "Wellness Coach", "TRUE"},
		}
		if err := l.appendRows(ctx, counselorsSheet, seed); err != nil {
			return err
		}
	}
	if !existing[bookingsSheet] {
		header := [][]interface{}{{
			"booking_id", "user_phone", "counselor_id", "date", "time_slot",
			"payment_status", "razorpay_order_id", "timestamp", "booking_status",
		}}
		if err := l.appendRows(ctx, bookingsSheet, header); err != nil {
			return err
		}
	}
	return nil
}

func (l *SheetsLedger) ListActiveCounselors(ctx context.Context) ([]models.Counselor, error) {
	rows, err := l.readRows(ctx, counselorsSheet+"!A2:E")
	if err != nil {
		return nil, err
	}
	var counselors []models.Counselor
	for _, r := range rows {
		if len(r) < 5 {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(cellStr(r, 4))) != "TRUE" {
			continue
		}
		counselors = append(counselors, models.Counselor{
			ID:          cellStr(r, 0),
			Name:        cellStr(r, 1),
			ImageURL:    cellStr(r, 2),
			Description: cellStr(r, 3),
			IsActive:    true,
		})
	}
	return counselors, nil
}

func (l *SheetsLedger) ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	rows, err := l.readRows(ctx, bookingsSheet+"!A2:I")
	if err != nil {
		return nil, err
	}
	var slots []string
	for _, r := range rows {
		b := bookingFromRow(r)
		if b.Date == date && b.CounselorID == counselorID && b.PaymentStatus == models.PaymentPaid {
			slots = append(slots, b.TimeSlot)
		}
	}
	return slots, nil
}

func (l *SheetsLedger) CreateBookingHold(ctx context.Context, b models.Booking) error {
	row := [][]interface{}{{
		b.BookingID,
		b.UserPhone,
		b.CounselorID,
		b.Date,
		b.TimeSlot,
		b.PaymentStatus,
		b.RazorpayOrderID,
		b.Timestamp.Format(time.RFC3339),
		b.BookingStatus,
	}}
	return l.appendRows(ctx, bookingsSheet, row)
}

func (l *SheetsLedger) FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	_, row, err := l.findBookingRow(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	b := bookingFromRow(row)
	return &b, nil
}

func (l *SheetsLedger) UpdatePaymentStatus(ctx context.Context, bookingID, status, orderID string) error {
	rowNum, _, err := l.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := l.writeCell(ctx, colPaymentStatus, rowNum, status); err != nil {
		return err
	}
	if orderID != "" {
		return l.writeCell(ctx, colOrderID, rowNum, orderID)
	}
	return nil
}

func (l *SheetsLedger) UpdateDateTime(ctx context.Context, bookingID, date, timeSlot string) error {
	rowNum, _, err := l.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := l.writeCell(ctx, colDate, rowNum, date); err != nil {
		return err
	}
	return l.writeCell(ctx, colTimeSlot, rowNum, timeSlot)
}

func (l *SheetsLedger) Cancel(ctx context.Context, bookingID string) error {
	rowNum, _, err := l.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}
	return l.writeCell(ctx, colBookingStatus, rowNum, models.BookingCancelled)
}

func (l *SheetsLedger) CountPaidBookings(ctx context.Context, userPhone string) (int, error) {
	rows, err := l.readRows(ctx, bookingsSheet+"!A2:I")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range rows {
		b := bookingFromRow(r)
		if b.UserPhone == userPhone && b.PaymentStatus == models.PaymentPaid {
			count++
		}
	}
	return count, nil
}

func (l *SheetsLedger) ListActiveBookings(ctx context.Context, userPhone string) ([]models.Booking, error) {
	rows, err := l.readRows(ctx, bookingsSheet+"!A2:I")
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	for _, r := range rows {
		b := bookingFromRow(r)
		if b.UserPhone == userPhone && b.PaymentStatus == models.PaymentPaid && b.IsActive() {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

// findBookingRow scans column A for the booking id and returns the 1-based
// sheet row number together with the row's values.
func (l *SheetsLedger) findBookingRow(ctx context.Context, bookingID string) (int, []interface{}, error) {
	rows, err := l.readRows(ctx, bookingsSheet+"!A2:I")
	if err != nil {
		return 0, nil, err
	}
	for i, r := range rows {
		if cellStr(r, 0) == bookingID {
			return i + 2, r, nil
		}
	}
	return 0, nil, ErrRecordNotFound
}

func (l *SheetsLedger) readRows(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", readRange, err)
	}
	return resp.Values, nil
}

func (l *SheetsLedger) appendRows(ctx context.Context, sheet string, values [][]interface{}) error {
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, sheet+"!A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

func (l *SheetsLedger) writeCell(ctx context.Context, col string, rowNum int, value string) error {
	cell := fmt.Sprintf("%s!%s%d", bookingsSheet, col, rowNum)
	_, err := l.svc.Spreadsheets.Values.Update(l.spreadsheetID, cell, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", cell, err)
	}
	return nil
}

// bookingFromRow maps a Bookings sheet row onto a Booking. Short rows yield
// zero values for the missing columns.
func bookingFromRow(r []interface{}) models.Booking {
	ts, _ := time.Parse(time.RFC3339, cellStr(r, 7))
	return models.Booking{
		BookingID:       cellStr(r, 0),
		UserPhone:       cellStr(r, 1),
		CounselorID:     cellStr(r, 2),
		Date:            cellStr(r, 3),
		TimeSlot:        cellStr(r, 4),
		PaymentStatus:   cellStr(r, 5),
		RazorpayOrderID: cellStr(r, 6),
		Timestamp:       ts,
		BookingStatus:   cellStr(r, 8),
	}
}

func cellStr(r []interface{}, i int) string {
	if i >= len(r) {
		return ""
	}
	s, _ := r[i].(string)
	return strings.TrimSpace(s)
}
