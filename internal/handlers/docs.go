package handlers

import (
	"encoding/json"
	"net/http"
)

var rangeParameter = map[string]interface{}{
	"name":        "range",
	"in":          "query",
	"description": "Number of most recent years to include, or \"all\" (default: all)",
	"required":    false,
	"schema":      map[string]interface{}{"type": "string", "default": "all"},
}

// displayNumberSchema is a rounded number or the string "Unavailable"
var displayNumberSchema = map[string]interface{}{
	"oneOf": []map[string]interface{}{
		{"type": "number"},
		{"type": "string", "enum": []string{Unavailable}},
	},
}

var trendSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"yearly_change":     displayNumberSchema,
		"percentage_change": displayNumberSchema,
	},
}

func jsonResponse(description string, schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func errorResponse(description string) map[string]interface{} {
	return jsonResponse(description, map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error":   map[string]string{"type": "string"},
			"message": map[string]string{"type": "string"},
			"code":    map[string]string{"type": "integer"},
		},
	})
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the monitoring API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Oman Environmental Monitoring API",
			"description": "Methane time series analysis, gas sensor board and greenhouse gas report",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/methane/yearly": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Yearly methane summaries",
					"parameters": []map[string]interface{}{rangeParameter},
					"responses": map[string]interface{}{
						"200": jsonResponse("Yearly average, minimum and maximum", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"range": map[string]string{"type": "string"},
								"data": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"year":    map[string]string{"type": "integer"},
											"average": map[string]string{"type": "number"},
											"min":     map[string]string{"type": "number"},
											"max":     map[string]string{"type": "number"},
										},
									},
								},
							},
						}),
						"400": errorResponse("Invalid range"),
					},
				},
			},
			"/api/methane/monthly": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Monthly methane seasonality",
					"responses": map[string]interface{}{
						"200": jsonResponse("Average per calendar month, January = 0", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"data": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"month":   map[string]string{"type": "integer"},
											"average": map[string]string{"type": "number"},
										},
									},
								},
							},
						}),
					},
				},
			},
			"/api/methane/trend": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Methane trend",
					"parameters": []map[string]interface{}{rangeParameter},
					"responses": map[string]interface{}{
						"200": jsonResponse("First-to-last yearly change", trendSchema),
						"400": errorResponse("Invalid range"),
					},
				},
			},
			"/api/methane/analysis": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Methane analysis",
					"parameters": []map[string]interface{}{rangeParameter},
					"responses": map[string]interface{}{
						"200": jsonResponse("Latest year, extremes and trend", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"available":      map[string]string{"type": "boolean"},
								"message":        map[string]string{"type": "string"},
								"range":          map[string]string{"type": "string"},
								"latest_year":    map[string]string{"type": "integer"},
								"latest_average": map[string]string{"type": "number"},
								"highest":        map[string]string{"type": "number"},
								"lowest":         map[string]string{"type": "number"},
								"trend":          trendSchema,
								"direction":      map[string]string{"type": "string"},
							},
						}),
						"400": errorResponse("Invalid range"),
					},
				},
			},
			"/api/sensors": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Gas sensor board",
					"parameters": []map[string]interface{}{
						{
							"name":        "regions",
							"in":          "query",
							"description": "Comma separated regions (default: all)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "gases",
							"in":          "query",
							"description": "Comma separated gases (default: all)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Latest level per region and gas", map[string]string{"type": "object"}),
						"400": errorResponse("Unknown region or gas"),
					},
				},
			},
			"/api/sensors/readings": map[string]interface{}{
				"post": map[string]interface{}{
					"summary": "Record a manual gas reading",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{"region", "gas", "value"},
									"properties": map[string]interface{}{
										"region": map[string]string{"type": "string"},
										"gas":    map[string]string{"type": "string"},
										"value":  map[string]string{"type": "number"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": jsonResponse("Stored reading", map[string]string{"type": "object"}),
						"400": errorResponse("Invalid reading"),
					},
				},
			},
			"/api/sensors/catalog": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Monitored gases and regions",
					"responses": map[string]interface{}{
						"200": jsonResponse("Sensor catalogue", map[string]string{"type": "object"}),
					},
				},
			},
			"/api/greenhouse": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Greenhouse gas emissions report",
					"responses": map[string]interface{}{
						"200": jsonResponse("Static emissions report with annual trend", map[string]string{"type": "object"}),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its storage are reachable",
					"responses": map[string]interface{}{
						"200": jsonResponse("API is healthy", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status":  map[string]string{"type": "string"},
								"storage": map[string]string{"type": "string"},
							},
						}),
						"503": jsonResponse("Storage unreachable", map[string]string{"type": "object"}),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
