package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError regroupe les erreurs de validation par champ JSON
type ValidationError struct {
	Code   string            `json:"code"`
	Champs map[string]string `json:"champs"`
}

// NewValidator retourne un validator qui nomme les champs d'après leur tag json
// et connaît la règle "telephone" (numéro valide pour la région donnée)
func NewValidator(defaultRegion string) *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("telephone", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := NormalizePhone(value, defaultRegion)
		return err == nil
	})

	return v
}

// ValidateStruct retourne nil ou l'ensemble des champs invalides
func ValidateStruct(v *validator.Validate, req interface{}) *ValidationError {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	result := &ValidationError{
		Code:   "VALIDATION_ERROR",
		Champs: make(map[string]string),
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		result.Champs["_"] = err.Error()
		return result
	}

	for _, fieldErr := range fieldErrors {
		result.Champs[fieldPath(fieldErr)] = ValidationMessage(fieldErr)
	}
	return result
}

// fieldPath retire le nom de la struct racine : "CreateAdminRequest.email" -> "email"
func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return fieldErr.Field()
}

// ValidationMessage traduit une erreur de validation en message français
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Ce champ est requis"
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("Doit contenir au moins %s élément(s)", err.Param())
		}
		return fmt.Sprintf("Doit contenir au moins %s caractères", err.Param())
	case "max":
		return fmt.Sprintf("Doit contenir au maximum %s caractères", err.Param())
	case "gte":
		return fmt.Sprintf("Doit être supérieur ou égal à %s", err.Param())
	case "lte":
		return fmt.Sprintf("Doit être inférieur ou égal à %s", err.Param())
	case "email":
		return "Format d'email invalide"
	case "uuid":
		return "Format UUID invalide"
	case "oneof":
		return fmt.Sprintf("Valeur invalide. Valeurs autorisées: %s", err.Param())
	case "telephone":
		return "Numéro de téléphone invalide"
	case "eqfield":
		return fmt.Sprintf("Doit être identique au champ %s", strings.ToLower(err.Param()))
	default:
		return "Valeur invalide"
	}
}
