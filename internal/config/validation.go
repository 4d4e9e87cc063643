package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("cronspec", validateCronSpec)
	return v
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if c.Athlete.ThresholdHR > 0 && c.Athlete.ThresholdHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.threshold_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.ThresholdHR, c.Athlete.MaxHR)
	}
	return nil
}

// ValidateStrava checks that Strava credentials are configured
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// formatValidationErrors turns validator output into one readable error
func formatValidationErrors(verrs validator.ValidationErrors) error {
	var b strings.Builder
	for _, fe := range verrs {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&b, "- %s is required\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- %s must be one of [%s], got %q\n", field, fe.Param(), fmt.Sprint(fe.Value()))
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- %s must be %s %s, got %v\n", field, fe.Tag(), fe.Param(), fe.Value())
		case "loglevel":
			fmt.Fprintf(&b, "- %s must be one of: debug, info, warn, error\n", field)
		case "cronspec":
			fmt.Fprintf(&b, "- %s is not a valid cron schedule: %q\n", field, fmt.Sprint(fe.Value()))
		default:
			fmt.Fprintf(&b, "- %s failed validation: %s\n", field, fe.Tag())
		}
	}
	return fmt.Errorf("invalid configuration:\n%s", b.String())
}
