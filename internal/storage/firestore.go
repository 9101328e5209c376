package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lyricfront/internal/log"
	"lyricfront/internal/session"
)

// Ensure FirestoreStore implements the Store interface
var _ Store = (*FirestoreStore)(nil)

// FirestoreStore persists sessions in Google Cloud Firestore, one document
// per session keyed by session ID.
//
// Error handling strategy:
// - Read operations return errors (session data must be available for
//   authenticated requests to work)
// - Cleanup deletions log and continue (a missed sweep retries next tick)
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// sessionDoc is the Firestore representation of a session
type sessionDoc struct {
	SessionID    string    `firestore:"session_id"`
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	ProfileID    string    `firestore:"profile_id"`
	DisplayName  string    `firestore:"display_name"`
	Email        string    `firestore:"email"`
	Country      string    `firestore:"country"`
	Product      string    `firestore:"product"`
	CreatedAt    time.Time `firestore:"created_at"`
	ExpiresAt    time.Time `firestore:"expires_at"`
}

func fromSession(s *session.Session) sessionDoc {
	return sessionDoc{
		SessionID:    s.ID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ProfileID:    s.Profile.ID,
		DisplayName:  s.Profile.DisplayName,
		Email:        s.Profile.Email,
		Country:      s.Profile.Country,
		Product:      s.Profile.Product,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
	}
}

func (d *sessionDoc) toSession() *session.Session {
	return &session.Session{
		ID:           d.SessionID,
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		Profile: session.Profile{
			ID:          d.ProfileID,
			DisplayName: d.DisplayName,
			Email:       d.Email,
			Country:     d.Country,
			Product:     d.Product,
		},
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// NewFirestoreStore creates a Firestore-backed session store
func NewFirestoreStore(ctx context.Context, projectID, database, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error

	// Firestore client with custom database
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStore{
		client:     client,
		collection: collection,
	}, nil
}

// GetSession loads a session document by ID
func (s *FirestoreStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	doc, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from Firestore: %w", err)
	}

	var entity sessionDoc
	if err := doc.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return entity.toSession(), nil
}

// PutSession writes a session document, replacing any existing one
func (s *FirestoreStore) PutSession(ctx context.Context, sess *session.Session) error {
	_, err := s.client.Collection(s.collection).Doc(sess.ID).Set(ctx, fromSession(sess))
	if err != nil {
		return fmt.Errorf("failed to store session in Firestore: %w", err)
	}
	return nil
}

// DeleteSession removes a session document; missing documents are not an error
func (s *FirestoreStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.client.Collection(s.collection).Doc(id).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete session from Firestore: %w", err)
	}
	return nil
}

// CountSessions reports the number of session documents
func (s *FirestoreStore) CountSessions(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate sessions: %w", err)
		}
		count++
	}

	return count, nil
}

// CleanupExpiredSessions deletes session documents past their expiry
func (s *FirestoreStore) CleanupExpiredSessions(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).Where("expires_at", "<", time.Now()).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to iterate expired sessions: %w", err)
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			log.LogError("Failed to delete expired session %s: %v", doc.Ref.ID, err)
			continue
		}
		count++
	}

	return count, nil
}

// Close releases the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
