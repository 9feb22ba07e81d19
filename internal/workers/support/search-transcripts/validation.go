package searchtranscripts

import "support-workers/internal/common/validation"

var inputSchema = validation.MustCompile([]byte(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["query"],
	"properties": {
		"query":  {"type": "string", "minLength": 1, "maxLength": 500},
		"status": {"type": "string", "enum": ["", "pendente", "em atendimento", "aberto", "finalizado", "fechado"]},
		"offset": {"type": "integer", "minimum": 0},
		"limit":  {"type": "integer", "minimum": 1, "maximum": 100}
	}
}`))
