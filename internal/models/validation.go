package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// structErrors runs the validate tags of v and returns one message per field,
// keyed the way the admin form names its inputs.
func structErrors(v interface{}) map[string]string {
	out := make(map[string]string)
	err := validatorInstance().Struct(v)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = messageFor(fe)
	}
	return out
}

// fieldKey turns "FrameRequest.rawVariations[0].quantity" into "variations[0].quantity"
// and "FrameRequest.dimensions.lensWidth" into "lensWidth".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.TrimPrefix(namespace, "dimensions.")
	if strings.HasPrefix(namespace, "rawVariations") {
		namespace = "variations" + strings.TrimPrefix(namespace, "rawVariations")
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
	case "hexcolor":
		return "Must be a color in #RRGGBB format"
	}
	return "Invalid value"
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
