package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedsync/internal/models"
	apperrors "github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoPostRecordRepository implements PostRecordRepository for MongoDB
type MongoPostRecordRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoPostRecordRepository creates a new MongoPostRecordRepository
func NewMongoPostRecordRepository(db *mongo.Database, logger *zap.Logger) *MongoPostRecordRepository {
	return &MongoPostRecordRepository{collection: db.Collection("post_records"), logger: logger}
}

// EnsureIndexes creates the unique post_id index used for upserts
func (r *MongoPostRecordRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return apperrors.NewPersistence("create post_id index", err)
	}
	return nil
}

// HasCachedRecords reports whether any post document exists
func (r *MongoPostRecordRepository) HasCachedRecords(ctx context.Context) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.D{}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.NewPersistence("count post records", err)
	}
	return count > 0, nil
}

// LoadRecords retrieves all complete post documents ordered by post id
func (r *MongoPostRecordRepository) LoadRecords(ctx context.Context) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "post_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, apperrors.NewPersistence("load post records", err)
	}
	defer cursor.Close(ctx)

	var records []models.PostRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, apperrors.NewPersistence("decode post records", err)
	}

	posts, dropped := models.PostsFromRecords(records)
	if dropped > 0 {
		r.logger.Debug("skipped incomplete post records", zap.Int("dropped", dropped))
	}
	return posts, nil
}

// SaveRecords upserts posts by post id. is_liked is only written on insert.
func (r *MongoPostRecordRepository) SaveRecords(ctx context.Context, posts []models.Post) error {
	posts = dedupeByID(posts)
	if len(posts) == 0 {
		return nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(posts))
	for _, p := range posts {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"post_id": p.ID}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"post_title": p.Title,
					"post_body":  p.Body,
					"updated_at": now,
				},
				"$setOnInsert": bson.M{
					"is_liked":   p.IsLiked,
					"created_at": now,
				},
			}).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return apperrors.NewPersistence("save post records", err)
	}
	return nil
}

// UpdateLikeState sets is_liked on the document with the given post id
func (r *MongoPostRecordRepository) UpdateLikeState(ctx context.Context, postID int, isLiked bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"post_id": postID},
		bson.M{"$set": bson.M{"is_liked": isLiked, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.NewPersistence("update like state", err)
	}
	if res.MatchedCount == 0 {
		r.logger.Debug("like state update matched no record", zap.Int("post_id", postID))
	}
	return nil
}
