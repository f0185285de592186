package controller

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	translationKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	tagSlugPattern        = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	localeCodePattern     = regexp.MustCompile(`^[a-z]{2,3}$`)
	hexColorPattern       = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the domain binding rules to gin's validator.
// Safe to call more than once; every call reports the first outcome.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerRules(binding.Validator.Engine())
	})
	return registerErr
}

func registerRules(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding engine is %T, not *validator.Validate", engine)
	}
	rules := []struct {
		tag string
		re  *regexp.Regexp
	}{
		{"translation_key", translationKeyPattern},
		{"tag_slug", tagSlugPattern},
		{"locale_code", localeCodePattern},
		{"hex_color", hexColorPattern},
	}
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, matches(r.re)); err != nil {
			return fmt.Errorf("register %s validator: %w", r.tag, err)
		}
	}
	return nil
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}
