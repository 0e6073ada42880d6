package services

import (
	"sort"
	"strings"
	"time"

	"sofimed-core/internal/modules/commercial/consultations/dto"
)

// IsUnread dernier message du client postérieur à la dernière lecture du commercial
func IsUnread(t dto.ThreadSummary) bool {
	if t.DernierMessage == nil || t.DernierMessage.AuteurRole != dto.AuteurClient {
		return false
	}
	if t.LuParCommercialA == nil {
		return true
	}
	return t.DernierMessage.CreatedAt.After(*t.LuParCommercialA)
}

// LastActivity date du dernier message, sinon dernière mise à jour du fil
func LastActivity(t dto.ThreadSummary) time.Time {
	if t.DernierMessage != nil && t.DernierMessage.CreatedAt.After(t.UpdatedAt) {
		return t.DernierMessage.CreatedAt
	}
	return t.UpdatedAt
}

// SortThreads activité la plus récente d'abord
func SortThreads(threads []dto.ThreadSummary) {
	sort.SliceStable(threads, func(i, j int) bool {
		a, b := LastActivity(threads[i]), LastActivity(threads[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return threads[i].ID < threads[j].ID
	})
}

func SortMessages(messages []dto.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

// CanReply un fil fermé n'accepte plus de réponse
func CanReply(statut string) bool {
	return statut != dto.StatutFermee
}

func NormalizeContenu(contenu string) string {
	return strings.TrimSpace(contenu)
}
