package openapi

import (
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI 3.1 document for the gateway's JSON API.
// cookieName is the operator session cookie guarding key creation.
func Generate(baseURL, version, cookieName string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "chatgate API",
			Description: "Authenticated, OpenAI-style chat completion gateway.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "http",
				Scheme:      "bearer",
				Description: "API key issued by /api/create_key. May also be sent as the api_key body field.",
			},
		},
		"operatorSession": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "apiKey",
				In:          "cookie",
				Name:        cookieName,
				Description: "Session cookie set by POST /login.",
			},
		},
	}
	doc.Components = &components

	doc.Paths = openapi3.NewPaths()
	doc.Paths.Set("/api/models", &openapi3.PathItem{Get: modelsOperation()})
	doc.Paths.Set("/api/create_key", &openapi3.PathItem{Post: createKeyOperation()})
	doc.Paths.Set("/api/chat", &openapi3.PathItem{Post: chatOperation()})
	return doc
}

// ─── Operations ─────────────────────────────────────────────────────────────

func modelsOperation() *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{"models"},
		Summary:     "List models",
		Description: "Sorted, de-duplicated union of the upstream's models and the configured fallback list.",
		OperationID: "list_models",
		Responses:   newResponses("200", "Available models", ref("ModelList"), http.StatusInternalServerError),
	}
}

func createKeyOperation() *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{"keys"},
		Summary:     "Create an API key",
		Description: "Issues a new key. The raw key is returned once and never stored.",
		OperationID: "create_key",
		Security:    &openapi3.SecurityRequirements{{"operatorSession": {}}},
		Responses: newResponses("200", "Newly issued key", ref("IssuedKey"),
			http.StatusUnauthorized, http.StatusInternalServerError),
	}
}

func chatOperation() *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{"chat"},
		Summary:     "Create a chat completion",
		OperationID: "create_chat_completion",
		Security:    &openapi3.SecurityRequirements{{"bearerAuth": {}}, {}},
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(ref("ChatRequest")),
			},
		},
		Responses: newResponses("200", "Completion envelope", ref("ChatCompletion"),
			http.StatusBadRequest, http.StatusForbidden, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusServiceUnavailable),
	}
}

// ─── Schemas ────────────────────────────────────────────────────────────────

func componentSchemas() openapi3.Schemas {
	message := object(openapi3.Schemas{
		"role":    stringSchema("system, user or assistant"),
		"content": stringSchema(""),
	}, "role", "content")

	chatRequest := object(openapi3.Schemas{
		"api_key":  stringSchema("Optional when an Authorization bearer token is sent."),
		"model":    stringSchema(""),
		"messages": arrayOf(ref("Message")),
	}, "model", "messages")

	choice := object(openapi3.Schemas{
		"index":         integerSchema(),
		"message":       ref("Message"),
		"finish_reason": stringSchema(""),
	}, "index", "message", "finish_reason")

	usage := object(openapi3.Schemas{
		"prompt_tokens":     integerSchema(),
		"completion_tokens": integerSchema(),
		"total_tokens":      integerSchema(),
	}, "prompt_tokens", "completion_tokens", "total_tokens")

	completion := object(openapi3.Schemas{
		"id":      stringSchema("chatcmpl- followed by 24 hex characters"),
		"object":  stringSchema("Always chat.completion"),
		"created": integerSchema(),
		"model":   stringSchema(""),
		"choices": arrayOf(ref("Choice")),
		"usage":   ref("Usage"),
	}, "id", "object", "created", "model", "choices", "usage")

	errorResponse := object(openapi3.Schemas{
		"error": {Value: object(openapi3.Schemas{
			"code":    integerSchema(),
			"message": stringSchema(""),
		}, "code", "message")},
	}, "error")

	return openapi3.Schemas{
		"Message":        {Value: message},
		"ChatRequest":    {Value: chatRequest},
		"Choice":         {Value: choice},
		"Usage":          {Value: usage},
		"ChatCompletion": {Value: completion},
		"ModelList": {Value: object(openapi3.Schemas{
			"models": arrayOf(&openapi3.SchemaRef{Value: openapi3.NewStringSchema()}),
		}, "models")},
		"IssuedKey": {Value: object(openapi3.Schemas{
			"api_key": stringSchema("Shown once. Store it securely."),
		}, "api_key")},
		"ErrorResponse": {Value: errorResponse},
	}
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func object(props openapi3.Schemas, required ...string) *openapi3.Schema {
	return &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
}

func stringSchema(description string) *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	s.Description = description
	return &openapi3.SchemaRef{Value: s}
}

func integerSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}
}

// newResponses builds the success response plus an ErrorResponse entry for
// each listed error status.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...int) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, code := range errorCodes {
		desc := http.StatusText(code)
		responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
