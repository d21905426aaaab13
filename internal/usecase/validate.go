package usecase

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	slugRe   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		_, err := time.Parse("15:04", s)
		return err == nil && len(s) == 5
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors collects the first message per field.
type fieldErrors map[string]Message

func (f fieldErrors) add(field, key string, args map[string]any) {
	if _, ok := f[field]; ok {
		return
	}
	if args == nil {
		args = map[string]any{}
	}
	args["field"] = field
	f[field] = Message{Key: key, Args: args}
}

func (f fieldErrors) notNegative(field string, d decimal.Decimal) {
	if d.IsNegative() {
		f.add(field, "validation.not_negative", nil)
	}
}

func (f fieldErrors) positive(field string, d decimal.Decimal) {
	if !d.IsPositive() {
		f.add(field, "validation.positive", nil)
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindInvalid, Key: "errors.validation", Fields: f}
}

// check runs the struct tags of in, then the extra rules, and reports every
// failing field at once.
func check(in any, extra ...func(fieldErrors)) error {
	fields := fieldErrors{}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &Error{Kind: KindInvalid, Key: "errors.validation", Err: err}
		}
		for _, fe := range verrs {
			name := fe.Namespace()
			if _, rest, ok := strings.Cut(name, "."); ok {
				name = rest
			}
			key, args := tagMessage(fe)
			fields.add(name, key, args)
		}
	}
	for _, fn := range extra {
		fn(fields)
	}
	return fields.err()
}

func tagMessage(fe validator.FieldError) (string, map[string]any) {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "validation.required", nil
	case "email":
		return "validation.email", nil
	case "hhmm":
		return "validation.time_format", nil
	case "slug":
		return "validation.slug", nil
	case "oneof":
		return "validation.one_of", map[string]any{"values": strings.ReplaceAll(fe.Param(), " ", ", ")}
	case "len":
		return "validation.length", map[string]any{"len": fe.Param()}
	case "min":
		if isString {
			return "validation.min_length", map[string]any{"min": fe.Param()}
		}
		return "validation.min_value", map[string]any{"min": fe.Param()}
	case "max":
		if isString {
			return "validation.max_length", map[string]any{"max": fe.Param()}
		}
		return "validation.max_value", map[string]any{"max": fe.Param()}
	case "gt":
		if fe.Param() == "0" {
			return "validation.positive", nil
		}
		return "validation.min_value", map[string]any{"min": fe.Param()}
	case "gte":
		if fe.Param() == "0" {
			return "validation.not_negative", nil
		}
		return "validation.min_value", map[string]any{"min": fe.Param()}
	case "lte":
		return "validation.max_value", map[string]any{"max": fe.Param()}
	}
	return "validation.invalid", nil
}
