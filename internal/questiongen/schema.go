package questiongen

import "github.com/debreselam/schoolbot/internal/llm"

// QuestionsSchema defines the JSON shape of one generated batch.
var QuestionsSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "A batch of multiple-choice quiz questions for a Sunday school class",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question shown to the student",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    optionCount,
							"maxItems":    optionCount,
							"description": "Exactly 4 short, distinct answer options",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct option, copied exactly from options",
						},
					},
					"required":             []any{"question", "options", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// batchOutput is the raw LLM response before validation.
type batchOutput struct {
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}
