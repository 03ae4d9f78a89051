// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names in errors
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks v against its `validate` struct tags and returns the
// failing fields with Turkish messages. It returns nil when v is valid.
func Validate(v any) map[string]string {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": "Geçersiz istek"}
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		if _, seen := fields[e.Field()]; !seen {
			fields[e.Field()] = validationMessage(e)
		}
	}
	return fields
}

func validationMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required", "required_without":
		return "Bu alan zorunludur"
	case "email":
		return "Geçerli bir e-posta adresi girin"
	case "min":
		if isString {
			return "En az " + e.Param() + " karakter olmalıdır"
		}
		return "En az " + e.Param() + " olmalıdır"
	case "max":
		if isString {
			return "En fazla " + e.Param() + " karakter olabilir"
		}
		return "En fazla " + e.Param() + " olabilir"
	case "gte":
		return e.Param() + " veya daha büyük olmalıdır"
	case "lte":
		return e.Param() + " veya daha küçük olmalıdır"
	case "gt":
		return e.Param() + " değerinden büyük olmalıdır"
	case "oneof":
		return "Şunlardan biri olmalıdır: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "url", "http_url":
		return "Geçerli bir bağlantı girin"
	default:
		return "Geçersiz değer"
	}
}
