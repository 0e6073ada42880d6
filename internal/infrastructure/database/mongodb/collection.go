package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionReclamations      = "reclamations"
	CollectionPredictionReports = "prediction_reports"
)

type CollectionManager struct {
	client *Client
}

func NewCollectionManager(client *Client) *CollectionManager {
	return &CollectionManager{client: client}
}

// EnsureCollections crée les collections documentaires avec validation et index
func (cm *CollectionManager) EnsureCollections(ctx context.Context) error {
	existing, err := cm.client.ListCollectionNames(ctx)
	if err != nil {
		return fmt.Errorf("liste des collections: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	if !present[CollectionReclamations] {
		if err := cm.createReclamationsCollection(ctx); err != nil {
			return err
		}
	}
	if !present[CollectionPredictionReports] {
		if err := cm.createReportsCollection(ctx); err != nil {
			return err
		}
	}

	if err := cm.client.CreateIndexes(ctx, CollectionReclamations, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "priorite", Value: 1}}},
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("index reclamations: %w", err)
	}

	if err := cm.client.CreateIndexes(ctx, CollectionPredictionReports, []mongo.IndexModel{
		{Keys: bson.D{{Key: "devis_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("index prediction_reports: %w", err)
	}

	return nil
}

func (cm *CollectionManager) createReclamationsCollection(ctx context.Context) error {
	validator := bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"reference", "client_id", "statut", "priorite", "sujet", "created_at"},
			"properties": bson.M{
				"reference": bson.M{"bsonType": "string"},
				"client_id": bson.M{"bsonType": "string"},
				"statut": bson.M{
					"enum": []string{"nouveau", "en_cours", "en_attente_client", "resolu", "ferme"},
				},
				"priorite": bson.M{
					"enum": []string{"basse", "moyenne", "haute", "critique"},
				},
				"reponses":   bson.M{"bsonType": "array"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}

	opts := options.CreateCollection().SetValidator(validator)
	if err := cm.client.Database().CreateCollection(ctx, CollectionReclamations, opts); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", CollectionReclamations, err)
	}
	return nil
}

func (cm *CollectionManager) createReportsCollection(ctx context.Context) error {
	validator := bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"devis_id", "probabilite", "html", "created_at"},
			"properties": bson.M{
				"devis_id":    bson.M{"bsonType": "string"},
				"probabilite": bson.M{"bsonType": "double", "minimum": 0, "maximum": 1},
				"html":        bson.M{"bsonType": "string"},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}

	opts := options.CreateCollection().SetValidator(validator)
	if err := cm.client.Database().CreateCollection(ctx, CollectionPredictionReports, opts); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", CollectionPredictionReports, err)
	}
	return nil
}
