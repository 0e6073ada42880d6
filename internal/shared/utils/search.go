package utils

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike neutralise les jokers d'un terme passé à ILIKE
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ContainsFold recherche insensible à la casse, équivalent mémoire de ILIKE '%term%'
func ContainsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}
