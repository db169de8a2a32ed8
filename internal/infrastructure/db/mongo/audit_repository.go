package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

const collectionAuthEvents = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// InsertEvent appends an event to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"kind":         string(event.Kind),
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}
	optional := map[string]string{
		"principal_id": event.PrincipalID,
		"target_id":    event.TargetID,
		"email":        event.Email,
		"operation":    event.Operation,
		"reason":       event.Reason,
		"remote_ip":    event.RemoteIP,
		"request_id":   event.RequestID,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}

	_, err := r.db.Collection(collectionAuthEvents).InsertOne(ctx, doc)
	return err
}
