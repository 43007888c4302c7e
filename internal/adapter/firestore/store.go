// Package firestore implements domain.SubscriptionStore on Cloud Firestore,
// one document per push token.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// Store is a token-keyed subscription collection.
type Store struct {
	client     *firestore.Client
	collection string
}

// New creates a Store over the given collection.
func New(client *firestore.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

// ScanPage returns up to pageSize records ordered by document ID, with the
// last document ID as the cursor for the next page. Document-ID ordering is
// stable, so repeated pagination during a long run cannot skip or duplicate
// records that are not concurrently mutated.
func (s *Store) ScanPage(ctx context.Context, pageSize int, cursor string) ([]domain.Subscription, string, error) {
	q := s.client.Collection(s.collection).OrderBy(firestore.DocumentID, firestore.Asc).Limit(pageSize)
	if cursor != "" {
		q = q.StartAfter(cursor)
	}

	subs, err := collect(q.Documents(ctx))
	if err != nil {
		return nil, "", fmt.Errorf("scan subscriptions page: %w", err)
	}

	next := ""
	if len(subs) == pageSize {
		next = subs[len(subs)-1].ID
	}
	return subs, next, nil
}

// GetBatch returns a single bounded snapshot of up to limit records.
func (s *Store) GetBatch(ctx context.Context, limit int) ([]domain.Subscription, error) {
	q := s.client.Collection(s.collection).OrderBy(firestore.DocumentID, firestore.Asc).Limit(limit)

	subs, err := collect(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("get subscription batch: %w", err)
	}
	return subs, nil
}

// Get returns the record stored under key, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (domain.Subscription, error) {
	doc, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Subscription{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return decode(doc)
}

// MergeUpdate writes only the given fields, never touching fields absent
// from the partial.
func (s *Store) MergeUpdate(ctx context.Context, key string, fields map[string]any) error {
	if _, err := s.client.Collection(s.collection).Doc(key).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge subscription %s: %w", key, err)
	}
	return nil
}

// Delete removes the record under key. Firestore deletes are idempotent:
// deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Collection(s.collection).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete subscription %s: %w", key, err)
	}
	return nil
}

func collect(it *firestore.DocumentIterator) ([]domain.Subscription, error) {
	defer it.Stop()

	var subs []domain.Subscription
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return subs, nil
		}
		if err != nil {
			return nil, err
		}
		sub, err := decode(doc)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
}

func decode(doc *firestore.DocumentSnapshot) (domain.Subscription, error) {
	var sub domain.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("decode subscription %s: %w", doc.Ref.ID, err)
	}
	sub.ID = doc.Ref.ID
	return sub, nil
}
