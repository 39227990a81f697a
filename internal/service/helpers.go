package service

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maheshrc27/postflow-sync/internal/cache"
)

// Cache is what the workflow services need from the remote data cache.
type Cache interface {
	cache.Getter
	Invalidate(ctx context.Context, keys ...cache.Key) error
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
