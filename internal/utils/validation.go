package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const passwordSymbols = "@$!%*?&"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the clinic's custom tags
// registered: clinicemail, strongpassword and intlphone.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		mustRegister(v, "clinicemail", func(fl validator.FieldLevel) bool {
			return IsClinicEmail(fl.Field().String())
		})
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		mustRegister(v, "intlphone", func(fl validator.FieldLevel) bool {
			return IsIntlPhone(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// IsClinicEmail reports whether s looks like name@domain.tld.
func IsClinicEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsStrongPassword requires at least 8 characters drawn from letters, digits
// and @$!%*?&, with at least one uppercase letter, one digit and one symbol.
func IsStrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			return false
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return upper && digit && symbol
}

// IsIntlPhone requires a leading + and at least 10 characters.
func IsIntlPhone(s string) bool {
	return strings.HasPrefix(s, "+") && len(s) >= 10
}

// Validate performs validation on a struct.
func Validate(s any) error {
	return Validator().Struct(s)
}

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", e.Field(), e.Tag()))
		}
		return strings.Join(msgs, ", ")
	}
	return err.Error()
}

// BindAndValidate binds the JSON request body to obj and validates it.
// On failure it writes a 422 with a detail message and returns false.
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Unprocessable(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := Validate(obj); err != nil {
		Unprocessable(c, FormatValidationError(err))
		return false
	}
	return true
}
