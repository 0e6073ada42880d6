package queries

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"sofimed-core/internal/infrastructure/database/mongodb"
	"sofimed-core/internal/modules/back-office/reclamations/dto"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReclamationMongoStore struct {
	collection *mongo.Collection
}

func NewReclamationMongoStore(client *mongodb.Client) *ReclamationMongoStore {
	return &ReclamationMongoStore{collection: client.Collection(mongodb.CollectionReclamations)}
}

// BuildListFilter traduit les critères en filtre BSON; recherche littérale insensible à la casse
func BuildListFilter(filter dto.StoreFilter) bson.M {
	query := bson.M{}
	if filter.Statut != "" {
		query["statut"] = filter.Statut
	}
	if filter.Priorite != "" {
		query["priorite"] = filter.Priorite
	}
	if filter.Categorie != "" {
		query["categorie"] = filter.Categorie
	}
	if filter.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"reference": pattern},
			bson.M{"client_nom": pattern},
			bson.M{"sujet": pattern},
		}
	}
	return query
}

// prioriteRankExpr $switch priorite -> rang, aligné sur dto.PrioriteRank
func prioriteRankExpr() bson.M {
	priorites := make([]string, 0, len(dto.PrioriteRank))
	for p := range dto.PrioriteRank {
		priorites = append(priorites, p)
	}
	sort.Strings(priorites)

	branches := make(bson.A, 0, len(priorites))
	for _, p := range priorites {
		branches = append(branches, bson.M{
			"case": bson.M{"$eq": bson.A{"$priorite", p}},
			"then": dto.PrioriteRank[p],
		})
	}
	return bson.M{"$switch": bson.M{"branches": branches, "default": 0}}
}

// BuildListPipeline filtre, trie critique d'abord puis plus récente, et seulement ensuite limite
func BuildListPipeline(filter dto.StoreFilter, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: BuildListFilter(filter)}},
		{{Key: "$addFields", Value: bson.M{"_rang": prioriteRankExpr()}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_rang", Value: -1},
			{Key: "created_at", Value: -1},
			{Key: "reference", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"_rang": 0}}},
	}
}

// BuildCountPipeline regroupe par statut sur tout le filtre, statut exclu
func BuildCountPipeline(filter dto.StoreFilter) mongo.Pipeline {
	filter.Statut = ""
	return mongo.Pipeline{
		{{Key: "$match", Value: BuildListFilter(filter)}},
		{{Key: "$group", Value: bson.M{"_id": "$statut", "n": bson.M{"$sum": 1}}}},
	}
}

func (s *ReclamationMongoStore) List(ctx context.Context, filter dto.StoreFilter, limit int) ([]dto.Reclamation, error) {
	cursor, err := s.collection.Aggregate(ctx, BuildListPipeline(filter, limit), options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []dto.Reclamation
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("décodage réclamations: %w", err)
	}
	if items == nil {
		items = []dto.Reclamation{}
	}
	return items, nil
}

func (s *ReclamationMongoStore) CountByStatut(ctx context.Context, filter dto.StoreFilter) (map[string]int, error) {
	cursor, err := s.collection.Aggregate(ctx, BuildCountPipeline(filter))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Statut string `bson:"_id"`
		N      int    `bson:"n"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("décodage compteurs réclamations: %w", err)
	}

	byStatut := make(map[string]int, len(groups))
	for _, g := range groups {
		byStatut[g.Statut] = g.N
	}
	return byStatut, nil
}

// MaxReferenceSeq plus grand numéro REC-<year>-NNNN stocké, 0 si aucun.
// Comparaison numérique: au-delà de 9999 l'ordre lexicographique ne tient plus.
func (s *ReclamationMongoStore) MaxReferenceSeq(ctx context.Context, year int) (int64, error) {
	prefix := "REC-" + strconv.Itoa(year) + "-"
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reference": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"max": bson.M{"$max": bson.M{"$toLong": bson.M{"$substrCP": bson.A{
				"$reference", len(prefix), bson.M{"$strLenCP": "$reference"},
			}}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Max int64 `bson:"max"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("lecture dernière référence: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Max, nil
}

func (s *ReclamationMongoStore) Get(ctx context.Context, id string) (*dto.Reclamation, error) {
	var r dto.Reclamation
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dto.ErrReclamationNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *ReclamationMongoStore) Insert(ctx context.Context, r *dto.Reclamation) error {
	_, err := s.collection.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", dto.ErrDuplicateReference, r.Reference)
	}
	return err
}

func (s *ReclamationMongoStore) UpdateDetails(ctx context.Context, id string, req dto.UpdateReclamationRequest, now time.Time) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"sujet":       req.Sujet,
		"description": req.Description,
		"categorie":   req.Categorie,
		"priorite":    req.Priorite,
		"updated_at":  now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return dto.ErrReclamationNotFound
	}
	return nil
}

// SetStatut écrit le changement si le statut n'a pas bougé depuis la lecture
func (s *ReclamationMongoStore) SetStatut(ctx context.Context, id string, change dto.StatutChange, now time.Time) error {
	set := bson.M{"statut": change.To, "updated_at": now}
	if change.ResolvedAt != nil {
		set["resolved_at"] = *change.ResolvedAt
	}
	update := bson.M{"$set": set}
	if change.ClearResolved {
		update["$unset"] = bson.M{"resolved_at": ""}
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id, "statut": change.From}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missingOrChanged(ctx, id)
	}
	return nil
}

func (s *ReclamationMongoStore) AppendReponse(ctx context.Context, id, expectedStatut string, reponse dto.Reponse, newStatut string, now time.Time) error {
	set := bson.M{"updated_at": now}
	if newStatut != "" {
		set["statut"] = newStatut
	}

	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "statut": expectedStatut},
		bson.M{"$push": bson.M{"reponses": reponse}, "$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missingOrChanged(ctx, id)
	}
	return nil
}

func (s *ReclamationMongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return dto.ErrReclamationNotFound
	}
	return nil
}

func (s *ReclamationMongoStore) missingOrChanged(ctx context.Context, id string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return dto.ErrReclamationNotFound
	}
	return dto.ErrStatutChanged
}
