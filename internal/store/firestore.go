package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/parlakisik/event-escrow/internal/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps one collection per record type under a common prefix.
// Compare-and-swap updates run inside Firestore transactions.
type FirestoreStore struct {
	client *firestore.Client
	prefix string
}

func NewFirestoreStore(ctx context.Context, projectID, prefix string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client, prefix: prefix}, nil
}

func (s *FirestoreStore) col(name string) *firestore.CollectionRef {
	return s.client.Collection(s.prefix + name)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *FirestoreStore) CreateBooking(ctx context.Context, b model.Booking) error {
	if _, err := s.col("bookings").Doc(b.ID).Create(ctx, b); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("booking %s: %w", b.ID, ErrConflict)
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	doc, err := s.col("bookings").Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	var b model.Booking
	if err := doc.DataTo(&b); err != nil {
		return model.Booking{}, fmt.Errorf("decode booking: %w", err)
	}
	return b, nil
}

func (s *FirestoreStore) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	q := s.col("bookings").Query
	if filter.ClientID != "" {
		q = q.Where("client_id", "==", filter.ClientID)
	}
	if filter.VendorName != "" {
		q = q.Where("vendor_name", "==", filter.VendorName)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id", "==", filter.ProjectID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	out, err := collect[model.Booking](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	// Sorted here to avoid a composite index per filter combination.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FirestoreStore) SwapBooking(ctx context.Context, b model.Booking, expected model.BookingStatus) error {
	ref := s.col("bookings").Doc(b.ID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("booking %s: %w", b.ID, ErrNotFound)
			}
			return fmt.Errorf("get booking: %w", err)
		}
		var cur model.Booking
		if err := doc.DataTo(&cur); err != nil {
			return fmt.Errorf("decode booking: %w", err)
		}
		if cur.Status != expected {
			return fmt.Errorf("booking %s is %s: %w", b.ID, cur.Status, ErrConflict)
		}
		return tx.Set(ref, b)
	})
}

func (s *FirestoreStore) CreateProject(ctx context.Context, p model.Project) error {
	if _, err := s.col("projects").Doc(p.ID).Create(ctx, p); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("project %s: %w", p.ID, ErrConflict)
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	doc, err := s.col("projects").Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return model.Project{}, fmt.Errorf("get project: %w", err)
	}
	var p model.Project
	if err := doc.DataTo(&p); err != nil {
		return model.Project{}, fmt.Errorf("decode project: %w", err)
	}
	return p, nil
}

func (s *FirestoreStore) ListProjects(ctx context.Context, agentID string) ([]model.Project, error) {
	q := s.col("projects").Query
	if agentID != "" {
		q = q.Where("agent_id", "==", agentID)
	}
	out, err := collect[model.Project](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FirestoreStore) UpdateProject(ctx context.Context, p model.Project) error {
	ref := s.col("projects").Doc(p.ID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
			}
			return fmt.Errorf("get project: %w", err)
		}
		var cur model.Project
		if err := doc.DataTo(&cur); err != nil {
			return fmt.Errorf("decode project: %w", err)
		}
		if p.Version != cur.Version+1 {
			return fmt.Errorf("project %s at version %d: %w", p.ID, cur.Version, ErrConflict)
		}
		return tx.Set(ref, p)
	})
}

func (s *FirestoreStore) CreatePayout(ctx context.Context, p model.PayoutRequest) error {
	if _, err := s.col("payouts").Doc(p.ID).Create(ctx, p); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("payout %s: %w", p.ID, ErrConflict)
		}
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetPayout(ctx context.Context, id string) (model.PayoutRequest, error) {
	doc, err := s.col("payouts").Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return model.PayoutRequest{}, fmt.Errorf("payout %s: %w", id, ErrNotFound)
		}
		return model.PayoutRequest{}, fmt.Errorf("get payout: %w", err)
	}
	var p model.PayoutRequest
	if err := doc.DataTo(&p); err != nil {
		return model.PayoutRequest{}, fmt.Errorf("decode payout: %w", err)
	}
	return p, nil
}

func (s *FirestoreStore) ListPayouts(ctx context.Context, vendorName string) ([]model.PayoutRequest, error) {
	q := s.col("payouts").Query
	if vendorName != "" {
		q = q.Where("vendor_name", "==", vendorName)
	}
	out, err := collect[model.PayoutRequest](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *FirestoreStore) UpdatePayout(ctx context.Context, p model.PayoutRequest) error {
	ref := s.col("payouts").Doc(p.ID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("payout %s: %w", p.ID, ErrNotFound)
			}
			return fmt.Errorf("get payout: %w", err)
		}
		var cur model.PayoutRequest
		if err := doc.DataTo(&cur); err != nil {
			return fmt.Errorf("decode payout: %w", err)
		}
		if p.Version != cur.Version+1 {
			return fmt.Errorf("payout %s at version %d: %w", p.ID, cur.Version, ErrConflict)
		}
		return tx.Set(ref, p)
	})
}

func (s *FirestoreStore) SaveVendor(ctx context.Context, v model.Vendor) error {
	if _, err := s.col("vendors").Doc(v.ID).Set(ctx, v); err != nil {
		return fmt.Errorf("save vendor: %w", err)
	}
	return nil
}

// ListVendors filters in process: Firestore has no case-insensitive equality.
func (s *FirestoreStore) ListVendors(ctx context.Context, category, city string) ([]model.Vendor, error) {
	all, err := collect[model.Vendor](ctx, s.col("vendors").Query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	var out []model.Vendor
	for _, v := range all {
		if category != "" && !strings.EqualFold(v.Category, category) {
			continue
		}
		if city != "" && !strings.EqualFold(v.City, city) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func collect[T any](ctx context.Context, q firestore.Query) ([]T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
