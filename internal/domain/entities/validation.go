package entities

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Mod(f*2, 1) == 0
	})
	return v
}

// ValidatePromptRating checks an app rating is a whole star between 1 and 5.
func ValidatePromptRating(value int) error {
	if err := validate.Var(value, "min=1,max=5"); err != nil {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	return nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}
