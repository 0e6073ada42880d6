package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMAD formate un montant en dirhams : 1 234,50 MAD
func FormatMAD(amount decimal.Decimal) string {
	fixed := amount.Round(2).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if negative && amount.Round(2).Sign() != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s,%s MAD", sign, grouped.String(), fracPart)
}

// ParseDecimal lit un NUMERIC PostgreSQL transmis en texte; chaîne vide = 0
func ParseDecimal(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("montant invalide %q: %w", raw, err)
	}
	return d, nil
}

// Percent retourne part/total en pourcentage arrondi à 2 décimales; 0 si total nul
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// ConversionRate taux de conversion des devis en pourcentage: valides / (valides + refusés).
// Les devis en attente ne comptent pas; 0 quand aucun devis n'est décidé.
func ConversionRate(valides, refuses int64) decimal.Decimal {
	decides := valides + refuses
	if decides <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(valides).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(decides)).Round(2)
}
