package redis

import (
	"fmt"
	"regexp"
	"strings"
)

// RedisKeyGenerator génère les clés Redis selon les conventions SofIMed
// Pattern: sofimed_{environnement}_{domain}_{context}:{identifier}
type RedisKeyGenerator struct {
	environment string
}

// RedisKeyPattern définit un pattern standard de clé
type RedisKeyPattern struct {
	Domain  string // auth, cache, lock
	Context string // session, dashboard, prediction...
	TTL     int    // TTL en secondes, 0 = géré par l'appelant
}

// Patterns réellement utilisés par les modules
var RedisKeyPatterns = map[string]RedisKeyPattern{
	"auth_session":         {Domain: "auth", Context: "session", TTL: 0},
	"auth_user_sessions":   {Domain: "auth", Context: "user_sessions", TTL: 0},
	"auth_blacklist":       {Domain: "auth", Context: "blacklist", TTL: 0},
	"auth_ratelimit":       {Domain: "auth", Context: "ratelimit", TTL: 0},
	"auth_permissions":     {Domain: "auth", Context: "permissions", TTL: 3600},
	"cache_dashboard":      {Domain: "cache", Context: "dashboard", TTL: 300},
	"cache_commercial":     {Domain: "cache", Context: "commercial", TTL: 300},
	"cache_departements":   {Domain: "cache", Context: "departements", TTL: 3600},
	"lock_prediction":      {Domain: "lock", Context: "prediction", TTL: 60},
	"sequence_reclamation": {Domain: "sequence", Context: "reclamation", TTL: 0},
}

var validEnvironRegex = regexp.MustCompile(`^[a-z]{3,20}$`)

// NewRedisKeyGenerator crée le générateur pour un environnement donné
func NewRedisKeyGenerator(environment string) *RedisKeyGenerator {
	return &RedisKeyGenerator{environment: environment}
}

// GenerateKey génère une clé : sofimed_{env}_{domain}_{context}:{identifier}
func (rkg *RedisKeyGenerator) GenerateKey(patternName string, identifier ...string) (string, error) {
	pattern, exists := RedisKeyPatterns[patternName]
	if !exists {
		return "", fmt.Errorf("pattern Redis non trouvé: %s", patternName)
	}

	if !validEnvironRegex.MatchString(rkg.environment) {
		return "", fmt.Errorf("environnement invalide pour la clé: %q", rkg.environment)
	}

	prefix := fmt.Sprintf("sofimed_%s_%s_%s", rkg.environment, pattern.Domain, pattern.Context)

	if len(identifier) > 0 {
		return fmt.Sprintf("%s:%s", prefix, strings.Join(identifier, "_")), nil
	}

	// Clé singleton
	return prefix, nil
}

// MustKey génère une clé pour un pattern connu; panique si le pattern n'existe pas
func (rkg *RedisKeyGenerator) MustKey(patternName string, identifier ...string) string {
	key, err := rkg.GenerateKey(patternName, identifier...)
	if err != nil {
		panic(err)
	}
	return key
}

// GetTTL récupère le TTL d'un pattern
func (rkg *RedisKeyGenerator) GetTTL(patternName string) (int, error) {
	pattern, exists := RedisKeyPatterns[patternName]
	if !exists {
		return 0, fmt.Errorf("pattern Redis non trouvé: %s", patternName)
	}
	return pattern.TTL, nil
}

// GenerateWildcardPattern génère un pattern de recherche par domaine/context
func (rkg *RedisKeyGenerator) GenerateWildcardPattern(patternName string) (string, error) {
	prefix, err := rkg.GenerateKey(patternName)
	if err != nil {
		return "", err
	}
	return prefix + ":*", nil
}
