package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 12

// HashPassword hash un mot de passe avec bcrypt
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("impossible de hasher le mot de passe: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword compare un mot de passe en clair avec son hash bcrypt
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateSecurePassword produit 12 caractères dont au moins une minuscule,
// une majuscule, un chiffre et un caractère spécial
func GenerateSecurePassword() (string, error) {
	const (
		lowercase = "abcdefghijklmnopqrstuvwxyz"
		uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits    = "0123456789"
		specials  = "!@#$%^&*"
		all       = lowercase + uppercase + digits + specials
	)

	password := make([]byte, generatedPasswordLength)
	classes := []string{lowercase, uppercase, digits, specials}

	for i := range password {
		source := all
		if i < len(classes) {
			source = classes[i]
		}
		idx, err := randomIndex(len(source))
		if err != nil {
			return "", err
		}
		password[i] = source[idx]
	}

	// Fisher-Yates
	for i := len(password) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("génération aléatoire: %w", err)
	}
	return int(n.Int64()), nil
}
