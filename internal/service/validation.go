package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// validate is shared by every entry point of the service; the HTTP and MCP
// surfaces both reach it through CalculatorService.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("aspects_key", validateASPECTSKey)
	v.RegisterValidation("finite", validateFinite)
	return v
}

// jsonFieldName reports fields by their wire name so errors match the request.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validateASPECTSKey(fl validator.FieldLevel) bool {
	prefix, region, ok := strings.Cut(fl.Field().String(), "-")
	if !ok {
		return false
	}
	side := domain.Hemisphere(prefix)
	return (side == domain.HemisphereLeft || side == domain.HemisphereRight) && IsASPECTSRegion(region)
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// aspectsInput is the validated shape of an ASPECTS request.
type aspectsInput struct {
	Side    domain.Hemisphere `json:"side" validate:"oneof=L R"`
	Regions []string          `json:"regions" validate:"dive,aspects_key"`
}

// doseInput is the validated shape of a dosing request. Non-positive weights
// pass; the dosing engine answers them with the weight prompt.
type doseInput struct {
	WeightKg float64 `json:"weight_kg" validate:"finite"`
}

// validateStruct runs the shared validator and reports the first failure as a
// *domain.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validation failed: %w", err)
	}
	fe := fieldErrs[0]
	field, _, _ := strings.Cut(fe.Field(), "[")
	value := fe.Value()
	if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		// not representable in a JSON error body
		value = fmt.Sprint(f)
	}
	return domain.NewValidationError(field, fieldMessage(fe), value)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "aspects_key":
		return "region keys must look like L-M1 or R-IC"
	case "finite":
		return "must be a finite number"
	}
	return "failed " + fe.Tag() + " check"
}
