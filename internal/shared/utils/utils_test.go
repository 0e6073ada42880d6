package utils

import (
	"strings"
	"testing"
	"unicode"

	"github.com/shopspring/decimal"
)

func TestFormatMAD(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"0", "0,00 MAD"},
		{"12.5", "12,50 MAD"},
		{"1234.5", "1 234,50 MAD"},
		{"1234567.891", "1 234 567,89 MAD"},
		{"-9800", "-9 800,00 MAD"},
		{"999.999", "1 000,00 MAD"},
	}
	for _, tc := range cases {
		got := FormatMAD(decimal.RequireFromString(tc.in))
		if got != tc.expected {
			t.Fatalf("FormatMAD(%s) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("")
	if err != nil || !d.IsZero() {
		t.Fatalf("empty string should parse to zero, got %s (%v)", d, err)
	}
	d, err = ParseDecimal("1520.75")
	if err != nil || d.String() != "1520.75" {
		t.Fatalf("expected 1520.75, got %s (%v)", d, err)
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
}

func TestPercent(t *testing.T) {
	if !Percent(decimal.NewFromInt(3), decimal.Zero).IsZero() {
		t.Fatalf("percent with zero total must be zero")
	}
	if got := Percent(decimal.NewFromInt(25), decimal.NewFromInt(200)).String(); got != "12.5" {
		t.Fatalf("expected 12.5, got %s", got)
	}
}

func TestGenerateSecurePassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		password, err := GenerateSecurePassword()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(password) != generatedPasswordLength {
			t.Fatalf("expected %d chars, got %d", generatedPasswordLength, len(password))
		}

		var lower, upper, digit, special bool
		for _, r := range password {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			case strings.ContainsRune("!@#$%^&*", r):
				special = true
			}
		}
		if !lower || !upper || !digit || !special {
			t.Fatalf("password %q misses a character class", password)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret#2024", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword("Secret#2024", hash) {
		t.Fatalf("expected password to match")
	}
	if VerifyPassword("secret#2024", hash) {
		t.Fatalf("expected mismatch for different password")
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("0612345678", "MA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+212612345678" {
		t.Fatalf("expected +212612345678, got %s", got)
	}
	if _, err := NormalizePhone("12", "MA"); err == nil {
		t.Fatalf("expected error for short number")
	}
	if _, err := NormalizePhone("", "MA"); err == nil {
		t.Fatalf("expected error for empty number")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, info := Paginate(items, 2, 2)
	if len(page) != 2 || page[0] != 3 {
		t.Fatalf("unexpected page content %v", page)
	}
	if info.TotalPages != 3 || !info.HasNext || !info.HasPrev {
		t.Fatalf("unexpected pagination %+v", info)
	}

	page, info = Paginate(items, 9, 2)
	if len(page) != 0 || info.HasNext {
		t.Fatalf("out of range page should be empty, got %v %+v", page, info)
	}

	_, limit, offset := NormalizePage(0, 500)
	if limit != MaxPageLimit || offset != 0 {
		t.Fatalf("expected clamped limit and zero offset, got %d %d", limit, offset)
	}
}

func TestValidateStruct(t *testing.T) {
	type request struct {
		Email     string `json:"email" validate:"required,email"`
		Telephone string `json:"telephone" validate:"omitempty,telephone"`
	}

	v := NewValidator("MA")

	if errs := ValidateStruct(v, request{Email: "a@b.ma", Telephone: "0612345678"}); errs != nil {
		t.Fatalf("expected valid request, got %+v", errs)
	}

	errs := ValidateStruct(v, request{Email: "nope", Telephone: "123"})
	if errs == nil {
		t.Fatalf("expected validation errors")
	}
	if errs.Champs["email"] != "Format d'email invalide" {
		t.Fatalf("unexpected email message %q", errs.Champs["email"])
	}
	if errs.Champs["telephone"] != "Numéro de téléphone invalide" {
		t.Fatalf("unexpected telephone message %q", errs.Champs["telephone"])
	}
}

func TestConversionRate(t *testing.T) {
	cases := []struct {
		valides, refuses int64
		expected         string
	}{
		{0, 0, "0"},
		{3, 1, "75"},
		{1, 2, "33.33"},
		{5, 0, "100"},
	}
	for _, tc := range cases {
		if got := ConversionRate(tc.valides, tc.refuses).String(); got != tc.expected {
			t.Fatalf("ConversionRate(%d, %d) expected %s, got %s", tc.valides, tc.refuses, tc.expected, got)
		}
	}
}

func TestEscapeLikeAndContainsFold(t *testing.T) {
	if got := EscapeLike(`50%_a\b`); got != `50\%\_a\\b` {
		t.Fatalf("unexpected escape %q", got)
	}
	if !ContainsFold("Clinique Al Amal", "al am") || ContainsFold("Clinique", "hopital") {
		t.Fatalf("ContainsFold mismatch")
	}
}
