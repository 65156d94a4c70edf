package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(reelMediaValidation, Reel{})
	return v
}

// reelMediaValidation enforces that a reel carries exactly one media reference.
func reelMediaValidation(sl validator.StructLevel) {
	reel := sl.Current().Interface().(Reel)
	hasVideo := strings.TrimSpace(reel.VideoURL) != ""
	hasEmbed := reel.Embed != nil && reel.Embed.Shortcode != ""
	if hasVideo == hasEmbed {
		sl.ReportError(reel.VideoURL, "VideoURL", "VideoURL", "media_xor", "")
	}
}

// Validate checks struct tags and returns a readable message per failing field.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Namespace(), fe.Param())
	case "media_xor":
		return "reel must have exactly one of a video or an embedded post"
	default:
		return fmt.Sprintf("%s is invalid", fe.Namespace())
	}
}
