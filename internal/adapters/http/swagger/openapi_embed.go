// Package swagger serves the OpenAPI document and its documentation UI.
package swagger

import _ "embed"

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPI returns the embedded OpenAPI specification document.
func OpenAPI() []byte {
	return openAPISpec
}
