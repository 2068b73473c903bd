package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/repository"
)

// validate checks request shapes before any store access
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterStructValidation(nodeRefStructLevel, domain.NodeRef{})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// nodeRefStructLevel requires a path or an id
func nodeRefStructLevel(sl validator.StructLevel) {
	ref := sl.Current().Interface().(domain.NodeRef)
	if ref.IsBlank() {
		sl.ReportError(ref.Path, "path", "Path", "pathorid", "")
		sl.ReportError(ref.ID, "id", "ID", "pathorid", "")
	}
}

// Validator returns the shared validator so the HTTP layer applies the same rules
func Validator() *validator.Validate {
	return validate
}

// validateRequest turns validation failures into InvalidArgument errors
func validateRequest(op string, req any) error {
	return BindingError(op, validate.Struct(req))
}

// BindingError converts a decoding or validation failure into an InvalidArgument error
func BindingError(op string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid(op, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return domain.Invalid(op, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fe.Field() + " must not be blank"
	case "pathorid":
		return "either path or id must be provided"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// wrapStore classifies a store failure. Errors that already carry a kind pass through.
func wrapStore(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, repository.ErrItemNotFound) {
		return domain.NotFound(op, message, err)
	}
	return domain.StoreFailure(op, message, err)
}
