package config

const DocumentationURL = "https://developer.walmart.com/api/us/mp/"

// ConnectionSpecification is the JSON schema of WalmartConfig shown to users.
func ConnectionSpecification() map[string]interface{} {
	datePattern := "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "Walmart Seller Spec",
		"type":                 "object",
		"required":             []string{"client_id", "client_secret", "start_date"},
		"additionalProperties": true,
		"properties": map[string]interface{}{
			"client_id": map[string]interface{}{
				"type":        "string",
				"title":       "Walmart Client Id",
				"description": "Walmart Client ID.",
				"order":       1,
			},
			"client_secret": map[string]interface{}{
				"type":           "string",
				"title":          "Walmart Client Secret",
				"description":    "Walmart Client Secret.",
				"airbyte_secret": true,
				"order":          2,
			},
			"start_date": map[string]interface{}{
				"type":        "string",
				"title":       "Start Date",
				"description": "UTC date in the format 2017-01-25. Any data before this date will not be replicated.",
				"pattern":     datePattern,
				"examples":    []string{"2017-01-25"},
				"order":       3,
			},
			"end_date": map[string]interface{}{
				"type":        "string",
				"title":       "End Date",
				"description": "UTC date in the format 2017-01-25. Any data after this date will not be replicated.",
				"pattern":     datePattern + "|^$",
				"examples":    []string{"2017-01-25"},
				"order":       4,
			},
		},
	}
}
