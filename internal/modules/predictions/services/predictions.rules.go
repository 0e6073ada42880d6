package services

import (
	"sort"

	"sofimed-core/internal/modules/predictions/dto"
)

// Level niveau de probabilité: elevee >= 0.7, moyenne >= 0.4, faible sinon
func Level(probabilite float64) string {
	switch {
	case probabilite >= dto.SeuilElevee:
		return dto.NiveauElevee
	case probabilite >= dto.SeuilMoyenne:
		return dto.NiveauMoyenne
	default:
		return dto.NiveauFaible
	}
}

// RankFactors facteurs par impact absolu décroissant
func RankFactors(facteurs []dto.Facteur) []dto.Facteur {
	ranked := append([]dto.Facteur(nil), facteurs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return abs(ranked[i].Impact) > abs(ranked[j].Impact)
	})
	if ranked == nil {
		ranked = []dto.Facteur{}
	}
	return ranked
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
