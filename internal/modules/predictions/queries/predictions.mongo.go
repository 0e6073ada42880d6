package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/mongodb"
	"sofimed-core/internal/modules/predictions/dto"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportMongoStore struct {
	collection *mongo.Collection
}

func NewReportMongoStore(client *mongodb.Client) *ReportMongoStore {
	return &ReportMongoStore{collection: client.Collection(mongodb.CollectionPredictionReports)}
}

func (s *ReportMongoStore) Insert(ctx context.Context, report dto.Report) error {
	if _, err := s.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("enregistrement du rapport: %w", err)
	}
	return nil
}

// ListByDevis historique sans le corps HTML, plus récent d'abord
func (s *ReportMongoStore) ListByDevis(ctx context.Context, devisID string, limit int64) ([]dto.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"html": 0}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"devis_id": devisID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []dto.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("décodage des rapports: %w", err)
	}
	if reports == nil {
		reports = []dto.Report{}
	}
	return reports, nil
}

func (s *ReportMongoStore) Get(ctx context.Context, id string) (*dto.Report, error) {
	var report dto.Report
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dto.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
