package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellnessbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLedger stores counselors and bookings in MongoDB collections.
type MongoLedger struct {
	counselorColl *mongo.Collection
	bookingColl   *mongo.Collection
}

// NewMongoLedger connects to MongoDB and returns a ledger backed by the
// "counselors" and "bookings" collections of the given database.
func NewMongoLedger(ctx context.Context, uri, dbName string) (*MongoLedger, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxWithTimeout, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctxWithTimeout, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &MongoLedger{
		counselorColl: db.Collection("counselors"),
		bookingColl:   db.Collection("bookings"),
	}, nil
}

func (l *MongoLedger) ListActiveCounselors(ctx context.Context) ([]models.Counselor, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := l.counselorColl.Find(ctxWithTimeout, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query counselors: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var counselors []models.Counselor
	if err := cursor.All(ctxWithTimeout, &counselors); err != nil {
		return nil, fmt.Errorf("failed to decode counselors: %w", err)
	}
	return counselors, nil
}

func (l *MongoLedger) ListPaidSlots(ctx context.Context, date, counselorID string) ([]string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"date":           date,
		"counselor_id":   counselorID,
		"payment_status": models.PaymentPaid,
	}
	cursor, err := l.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode booked slots: %w", err)
	}
	slots := make([]string, 0, len(bookings))
	for _, b := range bookings {
		slots = append(slots, b.TimeSlot)
	}
	return slots, nil
}

func (l *MongoLedger) CreateBookingHold(ctx context.Context, b models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := l.bookingColl.InsertOne(ctxWithTimeout, b); err != nil {
		return fmt.Errorf("error creating booking hold: %w", err)
	}
	return nil
}

func (l *MongoLedger) FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := l.bookingColl.FindOne(ctxWithTimeout, bson.M{"booking_id": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (l *MongoLedger) UpdatePaymentStatus(ctx context.Context, bookingID, status, orderID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"payment_status": status}
	if orderID != "" {
		set["razorpay_order_id"] = orderID
	}
	res, err := l.bookingColl.UpdateOne(ctxWithTimeout, bson.M{"booking_id": bookingID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating payment status for %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (l *MongoLedger) UpdateDateTime(ctx context.Context, bookingID, date, timeSlot string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"date": date, "time_slot": timeSlot}}
	res, err := l.bookingColl.UpdateOne(ctxWithTimeout, bson.M{"booking_id": bookingID}, update)
	if err != nil {
		return fmt.Errorf("error updating date/time for %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (l *MongoLedger) Cancel(ctx context.Context, bookingID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"booking_status": models.BookingCancelled}}
	res, err := l.bookingColl.UpdateOne(ctxWithTimeout, bson.M{"booking_id": bookingID}, update)
	if err != nil {
		return fmt.Errorf("error cancelling booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (l *MongoLedger) CountPaidBookings(ctx context.Context, userPhone string) (int, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"user_phone": userPhone, "payment_status": models.PaymentPaid}
	count, err := l.bookingColl.CountDocuments(ctxWithTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting paid bookings: %w", err)
	}
	return int(count), nil
}

func (l *MongoLedger) ListActiveBookings(ctx context.Context, userPhone string) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"user_phone":     userPhone,
		"payment_status": models.PaymentPaid,
		// Older rows predate booking_status; treat missing/empty as ACTIVE.
		"booking_status": bson.M{"$in": bson.A{models.BookingActive, "", nil}},
	}
	cursor, err := l.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode active bookings: %w", err)
	}
	return bookings, nil
}
