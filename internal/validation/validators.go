package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxInputLength bounds user-submitted text; anything longer is rejected
// before it reaches the generation call.
const MaxInputLength = 4000

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("user_input", validateUserInput); err != nil {
		panic(fmt.Sprintf("failed to register user_input validator: %v", err))
	}
}

// validateUserInput adapts ValidateUserInput for struct tag usage.
func validateUserInput(fl validator.FieldLevel) bool {
	return ValidateUserInput(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing
// control characters.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateUserInput validates a user-submitted message.
func ValidateUserInput(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("input text is required")
	}
	if len(trimmed) > MaxInputLength {
		return fmt.Errorf("input text exceeds %d characters", MaxInputLength)
	}
	return nil
}
