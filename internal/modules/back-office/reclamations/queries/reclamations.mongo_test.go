package queries

import (
	"testing"

	"sofimed-core/internal/modules/back-office/reclamations/dto"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter(t *testing.T) {
	if got := BuildListFilter(dto.StoreFilter{}); len(got) != 0 {
		t.Fatalf("expected empty filter, got %v", got)
	}

	got := BuildListFilter(dto.StoreFilter{Priorite: "haute", Categorie: "livraison", Search: "REC-2026.1"})
	if got["priorite"] != "haute" || got["categorie"] != "livraison" {
		t.Fatalf("unexpected filter %v", got)
	}

	or, ok := got["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected 3 search branches, got %v", got["$or"])
	}
	pattern := or[0].(bson.M)["reference"].(bson.M)
	if pattern["$regex"] != `REC-2026\.1` || pattern["$options"] != "i" {
		t.Fatalf("search must be a literal case-insensitive regex, got %v", pattern)
	}
}

func TestBuildListPipelineLimitsAfterSort(t *testing.T) {
	pipeline := BuildListPipeline(dto.StoreFilter{Statut: "en_cours"}, 50)

	var names []string
	for _, stage := range pipeline {
		names = append(names, stage[0].Key)
	}
	want := []string{"$match", "$addFields", "$sort", "$limit", "$project"}
	if len(names) != len(want) {
		t.Fatalf("unexpected stages %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("stage %d: want %s, got %v", i, want[i], names)
		}
	}

	if match := pipeline[0][0].Value.(bson.M); match["statut"] != "en_cours" {
		t.Fatalf("list must filter on statut, got %v", match)
	}
	sortKeys := pipeline[2][0].Value.(bson.D)
	if sortKeys[0].Key != "_rang" || sortKeys[0].Value != -1 || sortKeys[1].Key != "created_at" {
		t.Fatalf("unexpected sort %v", sortKeys)
	}
	if pipeline[3][0].Value != 50 {
		t.Fatalf("unexpected limit %v", pipeline[3][0].Value)
	}
}

func TestPrioriteRankExprCoversEveryPriorite(t *testing.T) {
	branches := prioriteRankExpr()["$switch"].(bson.M)["branches"].(bson.A)
	if len(branches) != len(dto.PrioriteRank) {
		t.Fatalf("expected %d branches, got %d", len(dto.PrioriteRank), len(branches))
	}
	for _, b := range branches {
		branch := b.(bson.M)
		p := branch["case"].(bson.M)["$eq"].(bson.A)[1].(string)
		if branch["then"] != dto.PrioriteRank[p] {
			t.Fatalf("priorite %s: want rank %d, got %v", p, dto.PrioriteRank[p], branch["then"])
		}
	}
}

func TestBuildCountPipelineIgnoresStatut(t *testing.T) {
	pipeline := BuildCountPipeline(dto.StoreFilter{Statut: "resolu", Priorite: "haute"})
	match := pipeline[0][0].Value.(bson.M)
	if _, ok := match["statut"]; ok || match["priorite"] != "haute" {
		t.Fatalf("counts must ignore statut but keep other filters, got %v", match)
	}
	if pipeline[1][0].Key != "$group" {
		t.Fatalf("expected $group stage, got %s", pipeline[1][0].Key)
	}
}
