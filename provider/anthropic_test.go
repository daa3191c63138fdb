package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blendassist/model"
	"blendassist/provider/testutil"
)

func TestAnthropicProviderGenerate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if key := r.Header.Get("X-Api-Key"); key != "test-key" {
			t.Errorf("X-Api-Key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929","content":[{"type":"text","text":"bpy.ops.mesh.primitive_uv_sphere_add()"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(server.URL, "test-key", "")
	if err != nil {
		t.Fatal(err)
	}

	req := testutil.TestRequest("add a sphere")
	text, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "bpy.ops.mesh.primitive_uv_sphere_add()" {
		t.Errorf("Generate() = %q", text)
	}

	if body["max_tokens"] != float64(1500) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	msgs, ok := body["messages"].([]any)
	if !ok || len(msgs) != len(req.Messages)-1 {
		t.Errorf("messages = %v, want system entry moved out", body["messages"])
	}
	if _, ok := body["system"]; !ok {
		t.Error("system prompt should be sent in the system parameter")
	}
}

func TestAnthropicProviderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(server.URL, "test-key", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Generate(context.Background(), testutil.TestRequest("x"))
	if kind := model.KindOf(err); kind != model.FailureNetwork {
		t.Errorf("KindOf() = %q, want network (err: %v)", kind, err)
	}
}

func TestAnthropicProviderNoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(server.URL, "test-key", "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Generate(context.Background(), testutil.TestRequest("x"))
	if kind := model.KindOf(err); kind != model.FailureUnexpected {
		t.Errorf("KindOf() = %q, want unexpected (err: %v)", kind, err)
	}
}
