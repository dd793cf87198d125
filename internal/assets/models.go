package assets

import _ "embed"

// ModelsData holds the provider and model catalog.
//
//go:embed models.json
var ModelsData []byte
