// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"reflect"
	"testing"
)

// chunkReader replays a body split at fixed byte positions, exercising the
// decoder against arbitrary transport chunk boundaries.
type chunkReader struct {
	chunks [][]byte
}

func newChunkReader(body string, sizes ...int) *chunkReader {
	var chunks [][]byte
	rest := []byte(body)
	for _, n := range sizes {
		if n > len(rest) {
			n = len(rest)
		}
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	if len(rest) > 0 {
		chunks = append(chunks, rest)
	}
	return &chunkReader{chunks: chunks}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n == len(r.chunks[0]) {
		r.chunks = r.chunks[1:]
	} else {
		r.chunks[0] = r.chunks[0][n:]
	}
	return n, nil
}

func collectEvents(t *testing.T, body io.Reader, decode func(context.Context, io.Reader, func(StreamEvent)) error) ([]StreamEvent, error) {
	t.Helper()
	var events []StreamEvent
	err := decode(context.Background(), body, func(e StreamEvent) {
		events = append(events, e)
	})
	return events, err
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

const chatBody = `{"response":"Hel"}` + "\n" +
	`{"response":"lo"}` + "\n" +
	`{"done":true,"total_duration":123}` + "\n"

func TestDecodeChatStream(t *testing.T) {
	events, err := collectEvents(t, newChunkReader(chatBody), decodeChatStream)
	if err != nil {
		t.Fatalf("decodeChatStream: %v", err)
	}

	want := []StreamEvent{
		{Kind: EventToken, Token: "Hel"},
		{Kind: EventToken, Token: "lo"},
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if !reflect.DeepEqual(events[:2], want) {
		t.Errorf("token events = %+v, want %+v", events[:2], want)
	}

	last := events[2]
	if last.Kind != EventDone {
		t.Fatalf("terminal event kind = %v, want EventDone", last.Kind)
	}
	if last.Stats == nil || last.Stats.TotalDuration != 123 {
		t.Errorf("done stats = %+v, want TotalDuration 123", last.Stats)
	}
}

func TestDecodeChatStreamChunkBoundaryIndependence(t *testing.T) {
	splits := [][]int{
		{},                   // one read
		{1},                  // single leading byte
		{5, 5, 5, 5, 5},      // mid-object everywhere
		{18, 1, 17},          // split exactly at and around newlines
		{len(chatBody) - 1},  // split before final newline
		{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	}

	baseline, err := collectEvents(t, newChunkReader(chatBody), decodeChatStream)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	for _, sizes := range splits {
		events, err := collectEvents(t, newChunkReader(chatBody, sizes...), decodeChatStream)
		if err != nil {
			t.Fatalf("split %v: %v", sizes, err)
		}
		if !reflect.DeepEqual(events, baseline) {
			t.Errorf("split %v changed the event sequence:\n got %+v\nwant %+v", sizes, events, baseline)
		}
	}
}

func TestDecodeChatStreamMessageContent(t *testing.T) {
	body := `{"message":{"role":"assistant","content":"hi"}}` + "\n" +
		`{"done":true,"eval_count":2,"eval_duration":1000000000}` + "\n"

	events, err := collectEvents(t, newChunkReader(body), decodeChatStream)
	if err != nil {
		t.Fatalf("decodeChatStream: %v", err)
	}
	if events[0].Token != "hi" {
		t.Errorf("token = %q, want %q", events[0].Token, "hi")
	}
	if got := events[1].Stats.TokensPerSecond(); got != 2.0 {
		t.Errorf("TokensPerSecond = %v, want 2", got)
	}
}

func TestDecodeChatStreamTruncatedFragment(t *testing.T) {
	body := `{"respo` // stream closes before newline

	events, err := collectEvents(t, newChunkReader(body, 3), decodeChatStream)
	if !IsProtocol(err) {
		t.Fatalf("err = %v, want protocol error", err)
	}
	if len(events) != 0 {
		t.Errorf("truncated fragment emitted %d events, want 0", len(events))
	}
}

func TestDecodeChatStreamMidStreamError(t *testing.T) {
	body := `{"response":"ok"}` + "\n" +
		`{"error":"model 'x' not found"}` + "\n" +
		`{"response":"never"}` + "\n"

	events, err := collectEvents(t, newChunkReader(body), decodeChatStream)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found error", err)
	}
	if len(events) != 1 || events[0].Token != "ok" {
		t.Errorf("events = %+v, want single Token(ok) before the error line", events)
	}
}

func TestDecodeChatStreamEndsWithoutDone(t *testing.T) {
	body := `{"response":"partial"}` + "\n"

	_, err := collectEvents(t, newChunkReader(body), decodeChatStream)
	if !IsProtocol(err) {
		t.Fatalf("err = %v, want protocol error for missing done line", err)
	}
}

func TestDecodeChatStreamMalformedLine(t *testing.T) {
	body := "not json at all\n"

	_, err := collectEvents(t, newChunkReader(body), decodeChatStream)
	if !IsProtocol(err) {
		t.Fatalf("err = %v, want protocol error", err)
	}
}

func TestDecodeChatStreamCancelBetweenLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var events []StreamEvent
	err := decodeChatStream(ctx, newChunkReader(chatBody), func(e StreamEvent) {
		events = append(events, e)
		cancel() // cancel after the first decoded line
	})

	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after cancel, want 1", len(events))
	}
}

// =============================================================================
// PROGRESS STREAM TESTS
// =============================================================================

func TestDecodeProgressStream(t *testing.T) {
	body := `{"status":"pulling manifest"}` + "\n" +
		`{"status":"pulling abc","digest":"sha256:abc","total":200,"completed":50}` + "\n" +
		`{"status":"success"}` + "\n"

	events, err := collectEvents(t, newChunkReader(body, 7, 13), decodeProgressStream)
	if err != nil {
		t.Fatalf("decodeProgressStream: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Percent != -1 {
		t.Errorf("indeterminate percent = %v, want -1", events[0].Percent)
	}
	if events[1].Percent != 25 {
		t.Errorf("percent = %v, want 25", events[1].Percent)
	}
	if events[1].Status != "pulling abc" {
		t.Errorf("status = %q", events[1].Status)
	}
	if events[3].Kind != EventDone {
		t.Errorf("terminal kind = %v, want EventDone", events[3].Kind)
	}
}

func TestDecodeProgressStreamError(t *testing.T) {
	body := `{"status":"pulling manifest"}` + "\n" +
		`{"error":"pull model manifest: file does not exist"}` + "\n"

	events, err := collectEvents(t, newChunkReader(body), decodeProgressStream)
	if err == nil {
		t.Fatal("expected error from error line")
	}
	for _, e := range events {
		if e.Kind == EventDone {
			t.Error("Done emitted despite stream error")
		}
	}
}
