package dockwatch

import _ "embed"

//go:embed openapi.yaml
var OpenAPIYAML []byte
