package openapi

import (
	"encoding/json"
	"testing"
)

func TestGenerateDocumentsEveryRoute(t *testing.T) {
	doc := Generate("http://localhost:8080", "1.2.3", "chatgate_session")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI = %q, want 3.1.0", doc.OpenAPI)
	}
	if doc.Info.Version != "1.2.3" {
		t.Errorf("Info.Version = %q", doc.Info.Version)
	}

	tests := []struct {
		path   string
		method string
		codes  []string
	}{
		{"/api/models", "GET", []string{"200", "500"}},
		{"/api/create_key", "POST", []string{"200", "401", "500"}},
		{"/api/chat", "POST", []string{"200", "400", "403", "500", "503"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			item := doc.Paths.Value(tt.path)
			if item == nil {
				t.Fatalf("path %s missing", tt.path)
			}
			op := item.GetOperation(tt.method)
			if op == nil {
				t.Fatalf("%s %s missing", tt.method, tt.path)
			}
			for _, code := range tt.codes {
				if op.Responses.Value(code) == nil {
					t.Errorf("%s %s has no %s response", tt.method, tt.path, code)
				}
			}
		})
	}
}

func TestGenerateSecuritySchemes(t *testing.T) {
	doc := Generate("", "dev", "my_cookie")

	cookie := doc.Components.SecuritySchemes["operatorSession"]
	if cookie == nil || cookie.Value.In != "cookie" || cookie.Value.Name != "my_cookie" {
		t.Errorf("operatorSession scheme = %+v", cookie)
	}
	bearer := doc.Components.SecuritySchemes["bearerAuth"]
	if bearer == nil || bearer.Value.Scheme != "bearer" {
		t.Errorf("bearerAuth scheme = %+v", bearer)
	}
	if len(doc.Servers) != 0 {
		t.Errorf("no servers expected without a base URL, got %d", len(doc.Servers))
	}
}

func TestGenerateSchemasResolve(t *testing.T) {
	doc := Generate("", "dev", "c")

	for _, name := range []string{"Message", "ChatRequest", "Choice", "Usage", "ChatCompletion", "ModelList", "IssuedKey", "ErrorResponse"} {
		if doc.Components.Schemas[name] == nil {
			t.Errorf("component schema %s missing", name)
		}
	}

	req := doc.Components.Schemas["ChatRequest"].Value
	required := map[string]bool{}
	for _, r := range req.Required {
		required[r] = true
	}
	if !required["model"] || !required["messages"] || required["api_key"] {
		t.Errorf("ChatRequest required = %v, want model and messages only", req.Required)
	}
}

func TestGenerateMarshalsToJSON(t *testing.T) {
	b, err := json.Marshal(Generate("http://x", "dev", "c"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	paths, ok := m["paths"].(map[string]interface{})
	if !ok || paths["/api/chat"] == nil {
		t.Errorf("marshalled document lacks /api/chat: %s", b)
	}
}
