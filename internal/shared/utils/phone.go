package utils

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone valide un numéro et le retourne au format E.164.
// region est utilisée quand le numéro n'a pas d'indicatif international (ex: "MA").
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("numéro de téléphone vide")
	}
	if region == "" {
		region = "MA"
	}

	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("numéro de téléphone invalide: %w", err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("numéro de téléphone invalide: %s", raw)
	}

	return libphonenumber.Format(num, libphonenumber.E164), nil
}
