package signup

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/khanghh/signup-otp/params"
)

var basicEmailRegex = regexp.MustCompile(`\S+@\S+\.\S+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("basicemail", validateBasicEmail); err != nil {
		panic("failed to register basicemail validation: " + err.Error())
	}
	return v
}

func validateBasicEmail(fl validator.FieldLevel) bool {
	return basicEmailRegex.MatchString(fl.Field().String())
}

func translateFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "basicemail":
		return "invalid email format"
	default:
		return fe.Field() + " is invalid"
	}
}

// ValidateRegistrant checks that every field is filled in and the email looks
// like an address.
func ValidateRegistrant(r Registrant) *ValidationError {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[strings.ToLower(fe.Field())] = translateFieldError(fe)
		}
	}
	return &ValidationError{Message: MsgInvalidDetails, Fields: fields}
}

func validateCode(code string) *ValidationError {
	if utf8.RuneCountInString(code) != params.OTPCodeLength {
		return &ValidationError{
			Message: MsgOTPLength,
			Fields:  map[string]string{"otp": MsgOTPLength},
		}
	}
	return nil
}

// NormalizeCode strips everything but digits and keeps at most the code
// length, the same way the code input does in the browser.
func NormalizeCode(input string) string {
	var b strings.Builder
	for _, ch := range input {
		if ch < '0' || ch > '9' {
			continue
		}
		if b.Len() == params.OTPCodeLength {
			break
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
