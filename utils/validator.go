package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

// Minimal internal validator to avoid external dependency. Supports:
// - required
// - email (basic address shape)
// - username (letters, numbers, underscore, dot, 3-30 chars)
// - phone (digits with optional leading '+', 8-15 digits)
// - pin (4-6 digits)
// - pwdmin (min length 6)
// - eqfield=OtherField (field equals another field)

var (
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	rePin      = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = fv.String()
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "required" {
				if sval == "" {
					return errors.New(field.Name + " is required")
				}
			} else if p == "email" {
				if sval != "" && !reEmail.MatchString(sval) {
					return errors.New(field.Name + " must be a valid email address")
				}
			} else if p == "username" {
				if sval != "" && !reUsername.MatchString(sval) {
					return errors.New(field.Name + " must be 3-30 letters, digits, underscore or dot")
				}
			} else if p == "phone" {
				if sval != "" && !rePhone.MatchString(sval) {
					return errors.New(field.Name + " must be a valid phone number")
				}
			} else if p == "pin" {
				if sval != "" && !rePin.MatchString(sval) {
					return errors.New(field.Name + " must be 4 to 6 digits")
				}
			} else if p == "pwdmin" {
				if len(sval) < 6 {
					return errors.New(field.Name + " must be at least 6 characters")
				}
			} else if strings.HasPrefix(p, "eqfield=") {
				other := strings.TrimPrefix(p, "eqfield=")
				of := v.FieldByName(other)
				if of.IsValid() && of.Kind() == reflect.String {
					if sval != of.String() {
						return errors.New(field.Name + " must equal " + other)
					}
				}
			}
		}
	}
	return nil
}
