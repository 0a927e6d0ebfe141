package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Soil and crop categories understood by the fertilizer model.
var (
	SoilTypes = []string{"Sandy", "Loamy", "Clay", "Red", "Black"}
	CropTypes = []string{"Rice", "Wheat", "Cotton", "Maize", "Sugarcane", "Pulses", "Barley", "Millets"}
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON (or form) tag names in errors.
// - Registers alias tags for domain validations.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register applies tag naming and aliases to v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("pwd", "min=6,max=72") // bcrypt ignores bytes past 72
	v.RegisterAlias("soiltype", "oneof="+strings.Join(SoilTypes, " "))
	v.RegisterAlias("croptype", "oneof="+strings.Join(CropTypes, " "))
	v.RegisterAlias("nutrient", "gte=0,lte=150")
	v.RegisterAlias("percent", "gte=0,lte=100")
	v.RegisterAlias("phlevel", "gte=0,lte=14")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	numeric := isNumberKind(fe.Kind())

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof", "soiltype", "croptype":
		return "must be one of: " + strings.Join(strings.Fields(paramOrDefault(fe)), ", ")
	case "min", "gte":
		if numeric {
			return "must be greater than or equal to " + param
		}
		return "min length " + param
	case "max", "lte":
		if numeric {
			return "must be less than or equal to " + param
		}
		return "max length " + param
	case "pwd":
		return "must be between 6 and 72 characters"
	case "nutrient":
		return "must be between 0 and 150"
	case "percent":
		return "must be between 0 and 100"
	case "phlevel":
		return "must be between 0 and 14"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}

// aliases report their own tag with an empty param; recover the list
func paramOrDefault(fe validator.FieldError) string {
	switch fe.Tag() {
	case "soiltype":
		return strings.Join(SoilTypes, " ")
	case "croptype":
		return strings.Join(CropTypes, " ")
	}
	return fe.Param()
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
