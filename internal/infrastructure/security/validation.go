// Package security provides input validation and sanitization for inventory data
package security

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
)

var (
	scriptPattern     = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	eventAttrPattern  = regexp.MustCompile(`(?i)on[a-z]+\s*=\s*["'][^"']*["']`)
	jsURLPattern      = regexp.MustCompile(`(?i)javascript:\s*[^"'\s>]*`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	xssPattern        = regexp.MustCompile(`(?i)(<script|javascript:|on[a-z]+\s*=|<iframe|<object|<embed)`)
)

// ValidationService validates commands and cleans free text coming from
// users and from model output
type ValidationService struct {
	logger    *zap.Logger
	validator *validator.Validate
}

// NewValidationService creates a validator with the custom rules registered
func NewValidationService(logger *zap.Logger) *ValidationService {
	validate := validator.New()

	// Report json names rather than Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("no_xss", validateNoXSS)

	return &ValidationService{
		logger:    logger.Named("validation"),
		validator: validate,
	}
}

// ValidateStruct validates s and converts failures into a VALIDATION_FAILED error
func (v *ValidationService) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}

	details := make([]apperrors.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, apperrors.ValidationError{
			Field:   e.Field(),
			Value:   e.Value(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	v.logger.Debug("Validation failed", zap.Int("errors", len(details)))
	return apperrors.NewValidationErrors(details)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "no_xss":
		return fmt.Sprintf("%s contains markup that is not allowed", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// SanitizeText strips markup and scripts, collapses whitespace and truncates
// to maxLength runes (0 means unlimited).
func (v *ValidationService) SanitizeText(input string, maxLength int) string {
	// Entities are decoded first so encoded markup is stripped as well
	result := html.UnescapeString(input)
	result = scriptPattern.ReplaceAllString(result, "")
	result = eventAttrPattern.ReplaceAllString(result, "")
	result = jsURLPattern.ReplaceAllString(result, "")
	result = tagPattern.ReplaceAllString(result, "")
	result = strings.TrimSpace(whitespacePattern.ReplaceAllString(result, " "))

	if maxLength > 0 && utf8.RuneCountInString(result) > maxLength {
		result = strings.TrimSpace(string([]rune(result)[:maxLength]))
	}
	return result
}

func validateNoXSS(fl validator.FieldLevel) bool {
	return !xssPattern.MatchString(fl.Field().String())
}
