package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/folio/logger"
)

const (
	maxSlugLength      = 200
	maxSlugsPerRequest = 50
)

type Validator struct {
	validator                *validator.Validate
	logger                   logger.Logger
	tagValidationDetailsOnce sync.Once
	tagValidationDetailsMap  map[string]tagValidationDetails
}

type tagValidationDetails struct {
	validatorFunc validator.Func
	err           error
}

func New(logger logger.Logger) (*Validator, error) {
	validator := &Validator{validator: validator.New(), logger: logger}
	validator.validator.RegisterTagNameFunc(useJSONFieldNames)
	if err := validator.registerCustomValidatorsForTags(); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *Validator) Validate(i any) error {

	if err := v.validator.Struct(i); err != nil {
		v.logger.Warn("validation failed", "err", err.Error())
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {

			tagValidationDetails, ok := v.getTagValidationDetails()[validationErrs[0].Tag()]
			if ok {
				return tagValidationDetails.err
			}

			switch validationErrs[0].Tag() {
			case "required":
				return fmt.Errorf("missing required field '%s'", validationErrs[0].Field())

			case "min", "max":
				return fmt.Errorf("value or length of field '%s' is not in the expected range", validationErrs[0].Field())

			case "oneof":
				return fmt.Errorf("field '%s' must be one of: %s", validationErrs[0].Field(), validationErrs[0].Param())

			}
		}
		return err
	}
	return nil
}
func (v *Validator) getTagValidationDetails() map[string]tagValidationDetails {
	v.tagValidationDetailsOnce.Do(func() {
		v.tagValidationDetailsMap = map[string]tagValidationDetails{
			"valid_slug":  {validatorFunc: v.isValidSlug, err: errors.New("invalid slug")},
			"valid_slugs": {validatorFunc: v.isValidSlugList, err: errors.New("invalid slug list")},
			"valid_tag":   {validatorFunc: v.isValidTag, err: errors.New("invalid tag")},
			"valid_query": {validatorFunc: v.isValidQuery, err: errors.New("invalid query")},
		}
	})
	return v.tagValidationDetailsMap
}

func (v *Validator) registerCustomValidatorsForTags() error {

	tagValidationDetailsMap := v.getTagValidationDetails()

	for tag, tagValidationDetails := range tagValidationDetailsMap {
		if err := v.validator.RegisterValidation(tag, tagValidationDetails.validatorFunc); err != nil {
			v.logger.Error("failed to register customer validator function", "err", err.Error())
			return err
		}
	}
	return nil
}

func useJSONFieldNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func (v *Validator) isValidSlug(fl validator.FieldLevel) bool {
	return v.checkSlug(fl.Field().String())
}

// isValidSlugList accepts a comma separated list of slugs.
func (v *Validator) isValidSlugList(fl validator.FieldLevel) bool {
	list := fl.Field().String()
	if strings.TrimSpace(list) == "" {
		v.logger.Warn("slug list is empty")
		return false
	}
	slugs := strings.Split(list, ",")
	if len(slugs) > maxSlugsPerRequest {
		v.logger.Warn("too many slugs in request", "count", len(slugs))
		return false
	}
	for _, slug := range slugs {
		if !v.checkSlug(strings.TrimSpace(slug)) {
			return false
		}
	}
	return true
}

func (v *Validator) checkSlug(slug string) bool {
	if len(slug) == 0 || len(slug) > maxSlugLength {
		v.logger.Warn("slug has invalid length", "slug", slug)
		return false
	}
	if slug == "." || slug == ".." {
		v.logger.Warn("slug is a relative path element", "slug", slug)
		return false
	}
	if strings.ContainsAny(slug, "/\\\x00") || strings.TrimSpace(slug) != slug {
		v.logger.Warn("slug has forbidden characters", "slug", slug)
		return false
	}

	return true
}

func (v *Validator) isValidTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	if strings.TrimSpace(tag) == "" {
		v.logger.Warn("tag is empty", "tag", tag)
		return false
	}
	if strings.ContainsAny(tag, "/\x00") {
		v.logger.Warn("tag has forbidden characters", "tag", tag)
		return false
	}

	return true
}

func (v *Validator) isValidQuery(fl validator.FieldLevel) bool {
	query := fl.Field().String()
	if len(query) == 0 {
		return false
	}
	if strings.TrimSpace(query) == "" {
		v.logger.Warn("query is empty", "query", query)
		return false
	}

	return true
}
