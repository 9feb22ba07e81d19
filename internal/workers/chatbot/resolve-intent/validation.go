package resolveintent

import "support-workers/internal/common/validation"

var inputSchema = validation.MustCompile([]byte(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["utterance"],
	"properties": {
		"utterance": {"type": "string", "maxLength": 4000}
	}
}`))
