// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/djinn-tui/internal/modelfile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&ClientConfig{BaseURL: srv.URL})
}

// =============================================================================
// MODEL OPERATION TESTS
// =============================================================================

func TestList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListResponse{Models: []ModelSummary{
			{Name: "mistral:7b", Digest: "sha256:abc", Size: 4_100_000_000},
		}})
	})

	models, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(models) != 1 || models[0].Name != "mistral:7b" {
		t.Errorf("models = %+v", models)
	}
}

func TestShowNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'ghost' not found"})
	})

	_, err := client.Show(context.Background(), "ghost")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found error", err)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotModel string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		var req DeleteRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
	})

	if err := client.Delete(context.Background(), "old:latest"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotModel != "old:latest" {
		t.Errorf("model = %q, want old:latest", gotModel)
	}
}

func TestCheckRunningRefused(t *testing.T) {
	// Port from a closed test server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(&ClientConfig{BaseURL: url})
	err := client.CheckRunning(context.Background())
	if !IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

// =============================================================================
// STREAMING ENDPOINT TESTS
// =============================================================================

func TestPullProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req PullRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "mistral:7b" || !req.Stream {
			t.Errorf("pull request = %+v", req)
		}

		enc := json.NewEncoder(w)
		enc.Encode(ProgressChunk{Status: "pulling manifest"})
		enc.Encode(ProgressChunk{Status: "downloading", Total: 100, Completed: 40})
		enc.Encode(ProgressChunk{Status: "success"})
	})

	var events []StreamEvent
	err := client.Pull(context.Background(), "mistral:7b", func(e StreamEvent) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[1].Percent != 40 {
		t.Errorf("percent = %v, want 40", events[1].Percent)
	}
	if !events[3].Terminal() || events[3].Kind != EventDone {
		t.Errorf("terminal event = %+v", events[3])
	}
}

func TestChatStreamEndToEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("stream = false, want true")
		}

		flusher := w.(http.Flusher)
		for _, line := range []string{
			`{"message":{"role":"assistant","content":"Hel"}}`,
			`{"message":{"role":"assistant","content":"lo"}}`,
			`{"done":true,"total_duration":123}`,
		} {
			w.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	})

	var tokens string
	var done bool
	err := client.ChatStream(context.Background(), &ChatRequest{
		Model:    "mistral:7b",
		Messages: []Message{{Role: "user", Content: "hi"}},
	}, func(e StreamEvent) {
		switch e.Kind {
		case EventToken:
			tokens += e.Token
		case EventDone:
			done = true
		}
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if tokens != "Hello" {
		t.Errorf("tokens = %q, want %q", tokens, "Hello")
	}
	if !done {
		t.Error("no Done event received")
	}
}

// =============================================================================
// CREATE PAYLOAD TESTS
// =============================================================================

func TestBuildCreateRequestFields(t *testing.T) {
	mf, err := modelfile.Parse("FROM mistral:7b\n" +
		"PARAMETER temperature 0.7\n" +
		"PARAMETER stop a\n" +
		"PARAMETER stop b\n" +
		"SYSTEM be brief\n" +
		"ADAPTER lora sha256:abc\n" +
		"MESSAGE user hi\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	req, err := BuildCreateRequest("custom", mf, "")
	if err != nil {
		t.Fatalf("BuildCreateRequest: %v", err)
	}

	if req.Model != "custom" || req.From != "mistral:7b" || !req.Stream {
		t.Errorf("request = %+v", req)
	}
	if req.Parameters["temperature"] != "0.7" {
		t.Errorf("temperature = %v", req.Parameters["temperature"])
	}

	// Repeated keys collapse into an ordered list.
	stops, ok := req.Parameters["stop"].([]string)
	if !ok || len(stops) != 2 || stops[0] != "a" || stops[1] != "b" {
		t.Errorf("stop = %v, want [a b]", req.Parameters["stop"])
	}

	if req.Adapters["lora"] != "sha256:abc" {
		t.Errorf("adapters = %v", req.Adapters)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("messages = %v", req.Messages)
	}
}

func TestBuildCreateRequestOmitsAbsentFields(t *testing.T) {
	mf, err := modelfile.Parse("FROM base\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	req, err := BuildCreateRequest("slim", mf, "")
	if err != nil {
		t.Fatalf("BuildCreateRequest: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	json.Unmarshal(data, &fields)

	want := map[string]bool{"model": true, "from": true, "stream": true}
	for key := range fields {
		if !want[key] {
			t.Errorf("payload carries absent optional field %q", key)
		}
	}
	for key := range want {
		if _, ok := fields[key]; !ok {
			t.Errorf("payload missing required field %q", key)
		}
	}
}

func TestBuildCreateRequestQuantize(t *testing.T) {
	mf, _ := modelfile.Parse("FROM base\nQUANTIZE q4_K_M\n")

	req, err := BuildCreateRequest("quantized", mf, "")
	if err != nil {
		t.Fatalf("BuildCreateRequest: %v", err)
	}
	if req.Quantize != "q4_K_M" {
		t.Errorf("quantize = %q, want q4_K_M", req.Quantize)
	}

	// Explicit argument overrides the directive.
	req, err = BuildCreateRequest("quantized", mf, "q8_0")
	if err != nil {
		t.Fatalf("BuildCreateRequest: %v", err)
	}
	if req.Quantize != "q8_0" {
		t.Errorf("quantize = %q, want q8_0", req.Quantize)
	}
}

func TestBuildCreateRequestRejectsUnknownQuantize(t *testing.T) {
	mf, _ := modelfile.Parse("FROM base\n")

	_, err := BuildCreateRequest("bad", mf, "q99_FAKE")
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestBuildCreateRequestRequiresFrom(t *testing.T) {
	mf, _ := modelfile.Parse("SYSTEM no base model\n")

	_, err := BuildCreateRequest("orphan", mf, "")
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
