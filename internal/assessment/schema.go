package assessment

import "github.com/google/jsonschema-go/jsonschema"

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func num(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number", Description: desc}
}

func strList(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: desc}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func disability() *jsonschema.Schema {
	return object([]string{"confidenceScore", "indicators"}, map[string]*jsonschema.Schema{
		"confidenceScore": num("0 to 1"),
		"indicators":      strList("observed behaviours supporting the score"),
	})
}

// analysisSchema describes the structured learning-disability report.
var analysisSchema = object(
	[]string{"studentProfile", "learningDisabilities", "emotionAnalysis"},
	map[string]*jsonschema.Schema{
		"studentProfile": object([]string{"taskPerformance"}, map[string]*jsonschema.Schema{
			"userID": str(""),
			"email":  str(""),
			"taskPerformance": object(nil, map[string]*jsonschema.Schema{
				"numberComparison": object(nil, map[string]*jsonschema.Schema{
					"accuracyPercentage":  num(""),
					"averageResponseTime": num("seconds"),
					"interpretation":      str(""),
					"suggestedNextSteps":  strList(""),
				}),
				"handwriting": object(nil, map[string]*jsonschema.Schema{
					"characteristics":    strList(""),
					"interpretation":     str(""),
					"suggestedNextSteps": strList(""),
				}),
				"letterArrangement": object(nil, map[string]*jsonschema.Schema{
					"originalWord":       str(""),
					"userArrangement":    str(""),
					"accuracy":           {Type: "boolean"},
					"interpretation":     str(""),
					"suggestedNextSteps": strList(""),
				}),
			}),
		}),
		"learningDisabilities": object([]string{"Dyslexia", "Dysgraphia", "Dyscalculia"}, map[string]*jsonschema.Schema{
			"Dyslexia":    disability(),
			"Dysgraphia":  disability(),
			"Dyscalculia": disability(),
		}),
		"emotionAnalysis": object(nil, map[string]*jsonschema.Schema{
			"dominantEmotions": strList(""),
			"emotionOccurrences": {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "integer"},
			},
			"graphData": {
				Type: "array",
				Items: object([]string{"emotion", "count"}, map[string]*jsonschema.Schema{
					"emotion": str(""),
					"count":   {Type: "integer"},
				}),
			},
		}),
	},
)
