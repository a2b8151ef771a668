package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
)

type BookingRepository struct {
	collection *mongo.Collection
}

// NewBookingRepository creates a new MongoDB booking repository
func NewBookingRepository(db *mongo.Database) repositories.BookingRepository {
	return &BookingRepository{
		collection: db.Collection("bookings"),
	}
}

// Save implements repositories.BookingRepository
func (r *BookingRepository) Save(ctx context.Context, booking *entities.Booking) error {
	if booking == nil {
		return errors.New("booking cannot be nil")
	}
	if err := booking.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	doc := bson.M{
		"confirmation_code": booking.ConfirmationCode,
		"guest_name":        booking.GuestName,
		"guest_email":       booking.GuestEmail,
		"phone":             booking.Phone,
		"room_type":         booking.RoomType,
		"check_in":          booking.CheckIn,
		"check_out":         booking.CheckOut,
		"guests":            booking.Guests,
		"nights":            booking.Nights,
		"rate_per_night":    booking.RatePerNight,
		"total_cost":        booking.TotalCost,
		"currency":          booking.Currency,
		"status":            booking.Status,
		"created_at":        booking.CreatedAt,
		"updated_at":        booking.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	// Set the generated ID back to the booking
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}

	return nil
}

// ListByEmail implements repositories.BookingRepository
func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]*entities.Booking, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}

	filter := bson.M{"guest_email": email}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	var bookings []*entities.Booking
	for cursor.Next(ctx) {
		var doc bookingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// GetByCode implements repositories.BookingRepository
func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*entities.Booking, error) {
	if code == "" {
		return nil, errors.New("confirmation code cannot be empty")
	}

	var doc bookingDoc
	err := r.collection.FindOne(ctx, bson.M{"confirmation_code": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking %s: %w", code, err)
	}

	return doc.toEntity(), nil
}

// CancelByCode implements repositories.BookingRepository
func (r *BookingRepository) CancelByCode(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("confirmation code cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"status":     entities.BookingStatusCancelled,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"confirmation_code": code}, update)
	if err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", code, err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrBookingNotFound
	}

	return nil
}

// bookingDoc carries the ObjectID through decoding; everything else maps
// straight onto the entity's bson tags.
type bookingDoc struct {
	ID               primitive.ObjectID     `bson:"_id"`
	ConfirmationCode string                 `bson:"confirmation_code"`
	GuestName        string                 `bson:"guest_name"`
	GuestEmail       string                 `bson:"guest_email"`
	Phone            string                 `bson:"phone"`
	RoomType         string                 `bson:"room_type"`
	CheckIn          string                 `bson:"check_in"`
	CheckOut         string                 `bson:"check_out"`
	Guests           int                    `bson:"guests"`
	Nights           int                    `bson:"nights"`
	RatePerNight     int                    `bson:"rate_per_night"`
	TotalCost        int                    `bson:"total_cost"`
	Currency         string                 `bson:"currency"`
	Status           entities.BookingStatus `bson:"status"`
	CreatedAt        time.Time              `bson:"created_at"`
	UpdatedAt        time.Time              `bson:"updated_at"`
}

func (d *bookingDoc) toEntity() *entities.Booking {
	return &entities.Booking{
		ID:               d.ID.Hex(),
		ConfirmationCode: d.ConfirmationCode,
		GuestName:        d.GuestName,
		GuestEmail:       d.GuestEmail,
		Phone:            d.Phone,
		RoomType:         d.RoomType,
		CheckIn:          d.CheckIn,
		CheckOut:         d.CheckOut,
		Guests:           d.Guests,
		Nights:           d.Nights,
		RatePerNight:     d.RatePerNight,
		TotalCost:        d.TotalCost,
		Currency:         d.Currency,
		Status:           d.Status,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
