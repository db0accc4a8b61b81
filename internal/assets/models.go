package assets

import _ "embed"

// ModelsData holds the raw JSON catalogue of generation models.
//
//go:embed models.json
var ModelsData []byte
