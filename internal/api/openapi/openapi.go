// Пакет openapi — встроенный OpenAPI-контракт HTTP API Biology Module.
package openapi

import _ "embed"

// Spec — содержимое openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte
