package resetsession

import "support-workers/internal/common/validation"

var inputSchema = validation.MustCompile([]byte(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["sessionId"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`))
