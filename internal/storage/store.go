// Package storage provides the optional MongoDB archive of generated briefs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no brief matches.
var ErrNotFound = errors.New("brief not found")

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Store provides access to the archive collections.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	briefs     *mongo.Collection
	categories *mongo.Collection
}

// NewStore connects, pings and prepares indexes.
func NewStore(ctx context.Context, uri, dbName string, catalog models.Catalog) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(dbName)
	log.Info().Str("db", dbName).Msg("Connected to MongoDB")

	store := &Store{
		client:     client,
		db:         db,
		briefs:     db.Collection("briefs"),
		categories: db.Collection("categories"),
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create some indexes")
	}

	if err := store.initCategories(ctx, catalog); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize categories")
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) createIndexes(ctx context.Context) error {
	briefIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "generated_at", Value: -1}}},
		{Keys: bson.D{{Key: "risk.level", Value: 1}, {Key: "generated_at", Value: -1}}},
	}
	if _, err := s.briefs.Indexes().CreateMany(ctx, briefIndexes); err != nil {
		return fmt.Errorf("brief indexes: %w", err)
	}

	categoryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := s.categories.Indexes().CreateMany(ctx, categoryIndexes); err != nil {
		return fmt.Errorf("category indexes: %w", err)
	}
	return nil
}

// initCategories inserts catalog entries that are not present yet.
func (s *Store) initCategories(ctx context.Context, catalog models.Catalog) error {
	for _, cat := range catalog.All() {
		filter := bson.M{"slug": cat.Slug}
		update := bson.M{"$setOnInsert": cat}
		opts := options.Update().SetUpsert(true)
		if _, err := s.categories.UpdateOne(ctx, filter, update, opts); err != nil {
			return err
		}
	}
	return nil
}

// SaveBrief inserts or replaces a brief record by its ID.
func (s *Store) SaveBrief(ctx context.Context, rec *models.BriefRecord) error {
	if rec.ID == "" {
		return errors.New("brief record has no id")
	}
	filter := bson.M{"id": rec.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.briefs.ReplaceOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("saving brief %s: %w", rec.ID, err)
	}
	return nil
}

// GetBriefByID returns one archived brief.
func (s *Store) GetBriefByID(ctx context.Context, id string) (*models.BriefRecord, error) {
	var rec models.BriefRecord
	err := s.briefs.FindOne(ctx, bson.M{"id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecentBriefs returns archived briefs, newest first.
func (s *Store) GetRecentBriefs(ctx context.Context, limit int) ([]models.BriefRecord, error) {
	return s.findBriefs(ctx, bson.M{}, RecentOptions(limit))
}

// GetBriefsSince returns briefs generated at or after since, newest first.
func (s *Store) GetBriefsSince(ctx context.Context, since time.Time, limit int) ([]models.BriefRecord, error) {
	filter := bson.M{"generated_at": bson.M{"$gte": since}}
	return s.findBriefs(ctx, filter, RecentOptions(limit))
}

// GetCategories returns the archived category catalog.
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := s.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CountBriefs returns the number of archived briefs.
func (s *Store) CountBriefs(ctx context.Context) (int64, error) {
	return s.briefs.CountDocuments(ctx, bson.M{})
}

func (s *Store) findBriefs(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.BriefRecord, error) {
	cursor, err := s.briefs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	briefs := []models.BriefRecord{}
	if err := cursor.All(ctx, &briefs); err != nil {
		return nil, err
	}
	return briefs, nil
}

// ClampLimit bounds a caller-supplied page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// RecentOptions sorts newest first with a clamped limit.
func RecentOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))
}
