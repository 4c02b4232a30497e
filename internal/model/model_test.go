package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAPIKeyKeyHashNotInJSON(t *testing.T) {
	apiKey := APIKey{
		ID:        1,
		KeyHash:   "3f2a9c0d11e84b7aa0c5e1f2d3b4a5c6d7e8f90123456789abcdef0123456789",
		CreatedAt: time.Now(),
	}

	b, err := json.Marshal(apiKey)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if _, ok := m["key_hash"]; ok {
		t.Error("key_hash should NOT appear in JSON output")
	}
	if _, ok := m["created_at"]; !ok {
		t.Error("created_at should be present in JSON output")
	}
}

func TestAPIKeyFingerprint(t *testing.T) {
	k := APIKey{KeyHash: "3f2a9c0d11e84b7aa0c5e1f2"}
	if got := k.Fingerprint(); got != "3f2a9c0d11e8" {
		t.Errorf("Fingerprint() = %q, want %q", got, "3f2a9c0d11e8")
	}

	short := APIKey{KeyHash: "abc"}
	if got := short.Fingerprint(); got != "abc" {
		t.Errorf("Fingerprint() = %q, want %q", got, "abc")
	}
}

func TestChatRequestMissingMessagesIsNil(t *testing.T) {
	var absent ChatRequest
	if err := json.Unmarshal([]byte(`{"model":"x"}`), &absent); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if absent.Messages != nil {
		t.Errorf("absent messages should decode to nil, got %v", absent.Messages)
	}

	var empty ChatRequest
	if err := json.Unmarshal([]byte(`{"model":"x","messages":[]}`), &empty); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if empty.Messages == nil || len(empty.Messages) != 0 {
		t.Errorf("empty messages should decode to a non-nil empty slice, got %#v", empty.Messages)
	}
}

func TestChatCompletionJSON(t *testing.T) {
	c := ChatCompletion{
		ID:      "chatcmpl-0123456789abcdef01234567",
		Object:  "chat.completion",
		Created: 1700000000,
		Model:   "gpt-4o",
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: "hello"},
			FinishReason: "stop",
		}},
	}

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	for _, key := range []string{"id", "object", "created", "model", "choices", "usage"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in completion JSON", key)
		}
	}

	usage, ok := m["usage"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'usage' to be an object")
	}
	for _, key := range []string{"prompt_tokens", "completion_tokens", "total_tokens"} {
		if usage[key] != float64(0) {
			t.Errorf("usage.%s = %v, want 0", key, usage[key])
		}
	}

	choices := m["choices"].([]interface{})
	first := choices[0].(map[string]interface{})
	if first["finish_reason"] != "stop" {
		t.Errorf("finish_reason = %v, want stop", first["finish_reason"])
	}
}

func TestErrorResponseJSON(t *testing.T) {
	er := ErrorResponse{
		Error: ErrorDetail{
			Code:    403,
			Message: "invalid api key",
		},
	}

	b, err := json.Marshal(er)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	errObj, ok := m["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'error' key to be an object")
	}
	if errObj["code"] != float64(403) {
		t.Errorf("error.code = %v, want 403", errObj["code"])
	}
	if errObj["message"] != "invalid api key" {
		t.Errorf("error.message = %v, want %q", errObj["message"], "invalid api key")
	}
	if _, ok := errObj["context"]; ok {
		t.Error("context should be omitted when nil")
	}
}
