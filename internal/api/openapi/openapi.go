// Пакет openapi — встроенная OpenAPI-спецификация travel-module.
package openapi

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// Spec возвращает исходный YAML спецификации.
func Spec() []byte {
	return spec
}

// Load разбирает и валидирует встроенную спецификацию.
func Load(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("невалидная OpenAPI-спецификация: %w", err)
	}
	return doc, nil
}
