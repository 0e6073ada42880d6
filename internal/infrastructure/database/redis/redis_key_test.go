package redis

import "testing"

func TestGenerateKey(t *testing.T) {
	rkg := NewRedisKeyGenerator("development")

	tests := []struct {
		name       string
		pattern    string
		identifier []string
		want       string
		wantErr    bool
	}{
		{"session", "auth_session", []string{"abc"}, "sofimed_development_auth_session:abc", false},
		{"plusieurs identifiants", "cache_dashboard", []string{"Imagerie", "mois"}, "sofimed_development_cache_dashboard:Imagerie_mois", false},
		{"singleton", "sequence_reclamation", nil, "sofimed_development_sequence_reclamation", false},
		{"pattern inconnu", "inconnu", []string{"x"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rkg.GenerateKey(tt.pattern, tt.identifier...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("clé = %q, attendu %q", got, tt.want)
			}
		})
	}
}

func TestGenerateKeyRejectsInvalidEnvironment(t *testing.T) {
	rkg := NewRedisKeyGenerator("Prod-1")
	if _, err := rkg.GenerateKey("auth_session", "x"); err == nil {
		t.Fatal("erreur attendue pour un environnement invalide")
	}
}

func TestGenerateWildcardPattern(t *testing.T) {
	rkg := NewRedisKeyGenerator("docker")
	got, err := rkg.GenerateWildcardPattern("cache_dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sofimed_docker_cache_dashboard:*" {
		t.Errorf("pattern = %q", got)
	}
}
