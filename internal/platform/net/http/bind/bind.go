// Package bind decodes and validates JSON request bodies
package bind

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	perr "insights/internal/platform/errors"
)

// MaxBody caps request bodies, descriptors are small
const MaxBody = 1 << 20

type validatorSvc struct {
	v     *validator.Validate
	trans ut.Translator
}

var get = sync.OnceValue(func() validatorSvc {
	enLoc := en.New()
	trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	// messages name fields the way clients spell them
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	short(v, trans, "min", "{0} must be at least {1}")
	short(v, trans, "max", "{0} must be at most {1}")

	return validatorSvc{v: v, trans: trans}
})

// ParseJSON decodes exactly one T from the body, rejecting unknown fields, then validates it
func ParseJSON[T any](r *http.Request) (T, error) {
	var zero, dst T
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		if err == io.EOF {
			return zero, perr.JSONErrf("empty body")
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := get().v.Struct(dst); err != nil {
		field, msg := fieldAndMessage(err)
		return zero, perr.WithField(perr.New(perr.ErrorCodeValidation, msg), field)
	}
	return dst, nil
}

// fieldAndMessage returns the first failing field and its translated message
func fieldAndMessage(err error) (field, message string) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(get().trans)
	}
	return "", err.Error()
}

// short replaces a default translation with a terser one
func short(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
