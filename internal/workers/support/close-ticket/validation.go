package closeticket

import "support-workers/internal/common/validation"

var inputSchema = validation.MustCompile([]byte(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["ticketNumber"],
	"properties": {
		"ticketNumber": {"type": "string", "minLength": 1, "maxLength": 64},
		"sessionId": {"type": "string", "maxLength": 128}
	}
}`))
