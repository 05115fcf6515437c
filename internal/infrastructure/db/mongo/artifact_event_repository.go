package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

const artifactEventsCollection = "artifact_events"

// ArtifactEventRepository appends to the artifact audit trail.
type ArtifactEventRepository struct {
	coll *mongo.Collection
}

func NewArtifactEventRepository(db *mongo.Database) *ArtifactEventRepository {
	return &ArtifactEventRepository{coll: db.Collection(artifactEventsCollection)}
}

// InsertEvent persists one audit entry.
func (r *ArtifactEventRepository) InsertEvent(ctx context.Context, event *domain.ArtifactEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"action":      string(event.Action),
		"username":    event.Username,
		"size":        event.Size,
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.SHA256 != "" {
		doc["sha256"] = event.SHA256
	}
	if event.Filename != "" {
		doc["filename"] = event.Filename
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes indexes the trail by time for operator queries.
func (r *ArtifactEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	return err
}
