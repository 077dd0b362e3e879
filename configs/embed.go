// Package configs provides the embedded configuration template.
// The template is embedded at build time so `knowledgescout config init`
// works in every distribution, source builds and binary releases alike.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration, written to
// knowledgescout.yaml by `knowledgescout config init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
