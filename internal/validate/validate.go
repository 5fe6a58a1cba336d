// Package validate holds input checks shared by the CLI forms and API handlers.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

// Tag of the struct field holding a YouTube video link
const TagYouTubeURL = "youtube_url"

var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

// YouTubeURL checks the link looks like a YouTube one: youtube.com or youtu.be host
// with optional scheme and www prefix, followed by a non-empty path
func YouTubeURL(s string) error {
	if !youtubeURL.MatchString(s) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidYouTubeURL, s)
	}
	return nil
}

func PasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return apperrors.ErrPasswordMismatch
	}
	return nil
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns shared validator reporting fields by json names
// and knowing the youtube_url tag
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())

		// Return on 'TagName' json tag instead of struct name
		// Look at documentation of 'RegisterTagNameFunc' for more details
		instance.RegisterTagNameFunc(useJSONTagNames)
		_ = instance.RegisterValidation(TagYouTubeURL, func(fl validator.FieldLevel) bool {
			return YouTubeURL(fl.Field().String()) == nil
		})
	})
	return instance
}

// Struct validates struct fields by their `validate` tags.
// Returns validator.ValidationErrors on invalid values.
func Struct(v any) error {
	return Validator().Struct(v)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}
