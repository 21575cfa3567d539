package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/parlakisik/event-escrow/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type MongoStore struct {
	bookings *mongo.Collection
	projects *mongo.Collection
	payouts  *mongo.Collection
	vendors  *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		bookings: db.Collection("bookings"),
		projects: db.Collection("projects"),
		payouts:  db.Collection("payouts"),
		vendors:  db.Collection("vendors"),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	bookingIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "vendor_name", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}}},
	}
	if _, err := s.bookings.Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("booking indexes: %w", err)
	}
	if _, err := s.projects.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("project indexes: %w", err)
	}
	if _, err := s.payouts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "vendor_name", Value: 1}, {Key: "submitted_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("payout indexes: %w", err)
	}
	if _, err := s.vendors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "city", Value: 1}},
	}); err != nil {
		return fmt.Errorf("vendor indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateBooking(ctx context.Context, b model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := s.bookings.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("booking %s: %w", b.ID, ErrConflict)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *MongoStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var b model.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return model.Booking{}, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

func (s *MongoStore) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	q := bson.M{}
	if filter.ClientID != "" {
		q["client_id"] = filter.ClientID
	}
	if filter.VendorName != "" {
		q["vendor_name"] = filter.VendorName
	}
	if filter.ProjectID != "" {
		q["project_id"] = filter.ProjectID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.bookings.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	var out []model.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return out, nil
}

func (s *MongoStore) SwapBooking(ctx context.Context, b model.Booking, expected model.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.bookings.ReplaceOne(ctx, bson.M{"_id": b.ID, "status": expected}, b)
	if err != nil {
		return fmt.Errorf("replace booking: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetBooking(ctx, b.ID); err != nil {
			return err
		}
		return fmt.Errorf("booking %s left %s: %w", b.ID, expected, ErrConflict)
	}
	return nil
}

func (s *MongoStore) CreateProject(ctx context.Context, p model.Project) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := s.projects.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("project %s: %w", p.ID, ErrConflict)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *MongoStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var p model.Project
	if err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return model.Project{}, fmt.Errorf("find project: %w", err)
	}
	return p, nil
}

func (s *MongoStore) ListProjects(ctx context.Context, agentID string) ([]model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	q := bson.M{}
	if agentID != "" {
		q["agent_id"] = agentID
	}
	cur, err := s.projects.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	var out []model.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return out, nil
}

func (s *MongoStore) UpdateProject(ctx context.Context, p model.Project) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.projects.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": p.Version - 1}, p)
	if err != nil {
		return fmt.Errorf("replace project: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetProject(ctx, p.ID); err != nil {
			return err
		}
		return fmt.Errorf("project %s: %w", p.ID, ErrConflict)
	}
	return nil
}

func (s *MongoStore) CreatePayout(ctx context.Context, p model.PayoutRequest) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := s.payouts.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payout %s: %w", p.ID, ErrConflict)
		}
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func (s *MongoStore) GetPayout(ctx context.Context, id string) (model.PayoutRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var p model.PayoutRequest
	if err := s.payouts.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.PayoutRequest{}, fmt.Errorf("payout %s: %w", id, ErrNotFound)
		}
		return model.PayoutRequest{}, fmt.Errorf("find payout: %w", err)
	}
	return p, nil
}

func (s *MongoStore) ListPayouts(ctx context.Context, vendorName string) ([]model.PayoutRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	q := bson.M{}
	if vendorName != "" {
		q["vendor_name"] = vendorName
	}
	cur, err := s.payouts.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find payouts: %w", err)
	}
	var out []model.PayoutRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode payouts: %w", err)
	}
	return out, nil
}

func (s *MongoStore) UpdatePayout(ctx context.Context, p model.PayoutRequest) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.payouts.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": p.Version - 1}, p)
	if err != nil {
		return fmt.Errorf("replace payout: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetPayout(ctx, p.ID); err != nil {
			return err
		}
		return fmt.Errorf("payout %s: %w", p.ID, ErrConflict)
	}
	return nil
}

func (s *MongoStore) SaveVendor(ctx context.Context, v model.Vendor) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := s.vendors.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert vendor: %w", err)
	}
	return nil
}

func (s *MongoStore) ListVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	q := bson.M{}
	if category != "" {
		q["category"] = exactFold(category)
	}
	if city != "" {
		q["city"] = exactFold(city)
	}
	cur, err := s.vendors.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find vendors: %w", err)
	}
	var out []model.Vendor
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode vendors: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	// The client is owned by main.
	return nil
}

// exactFold matches the whole field case-insensitively.
func exactFold(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}
