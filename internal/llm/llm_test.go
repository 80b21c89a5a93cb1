package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type summaryJSON struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

func TestDecodeJSONPlain(t *testing.T) {
	var s summaryJSON
	if err := DecodeJSON(`{"summary": "value", "key_points": ["a"]}`, &s); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if s.Summary != "value" || len(s.KeyPoints) != 1 {
		t.Errorf("unexpected result %+v", s)
	}
}

func TestDecodeJSONWithCodeFence(t *testing.T) {
	var s summaryJSON
	if err := DecodeJSON("```json\n{\"summary\": \"value\"}\n```", &s); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if s.Summary != "value" {
		t.Errorf("expected summary='value', got %q", s.Summary)
	}
}

func TestDecodeJSONWithPlainFence(t *testing.T) {
	var s summaryJSON
	if err := DecodeJSON("```\n{\"summary\": \"value\"}\n```", &s); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if s.Summary != "value" {
		t.Errorf("expected summary='value', got %q", s.Summary)
	}
}

func TestDecodeJSONWithSurroundingText(t *testing.T) {
	var s summaryJSON
	if err := DecodeJSON("Sure! Here it is:\n{\"summary\": \"value\"}\nHope that helps.", &s); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if s.Summary != "value" {
		t.Errorf("expected summary='value', got %q", s.Summary)
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	var s summaryJSON
	if err := DecodeJSON("not json at all", &s); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if err := DecodeJSON("", &s); err == nil {
		t.Error("expected error for empty string")
	}
	if err := DecodeJSON("{broken", &s); err == nil {
		t.Error("expected error for unterminated object")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model %v", body["model"])
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"summary\":\"ok\"}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "sk-test", srv.URL)
	out, err := p.Generate(context.Background(), "summarize", 200)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"summary":"ok"}` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOpenAIGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "sk-test", srv.URL)
	_, err := p.Generate(context.Background(), "summarize", 200)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
		case "/api/chat":
			w.Write([]byte(`{"message":{"content":"hello"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider("llama3.2", srv.URL)
	if !p.IsConfigured() {
		t.Fatal("expected model to be found")
	}
	out, err := p.Generate(context.Background(), "hi", 10)
	if err != nil || out != "hello" {
		t.Errorf("Generate = %q, %v", out, err)
	}

	missing := NewOllamaProvider("mistral", srv.URL)
	if missing.IsConfigured() {
		t.Error("expected missing model to be unconfigured")
	}
}

func TestCreateProvider(t *testing.T) {
	if p := CreateProvider(Config{Provider: "none", APIKey: "sk"}); p != nil {
		t.Error("expected nil provider when disabled")
	}
	if p := CreateProvider(Config{Provider: "openai"}); p != nil {
		t.Error("expected nil provider without API key")
	}
	p := CreateProvider(Config{Provider: "openai", OpenAIModel: "gpt-4o-mini", APIKey: "sk"})
	if p == nil || p.Name() != "openai" {
		t.Errorf("expected openai provider, got %v", p)
	}
}
