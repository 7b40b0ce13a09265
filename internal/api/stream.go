// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the djinn daemon's
// Ollama-compatible API.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// =============================================================================
// LINE SCANNER
// =============================================================================

// lineScanner yields one complete NDJSON line at a time. Bytes are buffered
// until a newline arrives, so the decoded line sequence is identical no
// matter how the transport splits the body into read chunks.
type lineScanner struct {
	r *bufio.Reader
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{r: bufio.NewReader(r)}
}

// next returns the next non-blank line without its newline. It returns
// io.EOF at a clean end of stream and a ProtocolError when the stream
// closes mid-line, so a truncated trailing fragment is never decoded.
func (s *lineScanner) next() ([]byte, error) {
	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(bytes.TrimSpace(line)) == 0 {
					return nil, io.EOF
				}
				return nil, &ClientError{Type: ErrTypeProtocol, Message: "stream closed mid-line"}
			}
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
	}
}

// =============================================================================
// STREAM PROCESSING
// =============================================================================

// lineHandler consumes one decoded line. Returning done stops the stream.
type lineHandler func(line []byte) (done bool, err error)

// processLines drives a streamed response body through handle, one line per
// iteration. Cancellation is cooperative: the context is checked between
// lines, never mid-line, so a cancel takes effect within one whole line.
func processLines(ctx context.Context, body io.Reader, handle lineHandler) error {
	scanner := newLineScanner(body)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := scanner.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// A read aborted by cancellation surfaces as the context
			// error, not a transport failure.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return wrapStreamError(err)
		}

		done, err := handle(line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// checkLineError probes a decoded line for the daemon's mid-stream
// `{"error": ...}` shape. Any such line short-circuits the stream.
func checkLineError(line []byte) error {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return &ClientError{Type: ErrTypeProtocol, Message: "malformed stream line", Cause: err}
	}
	if probe.Error != "" {
		return remoteError(probe.Error)
	}
	return nil
}

func wrapStreamError(err error) error {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return err
	}
	return &ClientError{Type: ErrTypeTransport, Message: "stream read failed", Cause: err}
}

// =============================================================================
// TYPED DECODERS
// =============================================================================

// decodeChatStream decodes a chat/generate body, emitting one Token event
// per content-bearing line and a final Done event carrying statistics. A
// body that ends without a done:true line is a protocol violation.
func decodeChatStream(ctx context.Context, body io.Reader, emit func(StreamEvent)) error {
	sawDone := false

	err := processLines(ctx, body, func(line []byte) (bool, error) {
		if err := checkLineError(line); err != nil {
			return false, err
		}

		var chunk ChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return false, &ClientError{Type: ErrTypeProtocol, Message: "malformed stream line", Cause: err}
		}

		if token := chunk.Token(); token != "" {
			emit(StreamEvent{Kind: EventToken, Token: token})
		}
		if chunk.Done {
			sawDone = true
			emit(StreamEvent{Kind: EventDone, Stats: statsFromChunk(&chunk)})
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if !sawDone {
		return &ClientError{Type: ErrTypeProtocol, Message: "stream ended before done"}
	}
	return nil
}

// decodeProgressStream decodes a pull/create body, emitting one Progress
// event per status line and a final Done event when the body ends cleanly.
func decodeProgressStream(ctx context.Context, body io.Reader, emit func(StreamEvent)) error {
	err := processLines(ctx, body, func(line []byte) (bool, error) {
		if err := checkLineError(line); err != nil {
			return false, err
		}

		var chunk ProgressChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return false, &ClientError{Type: ErrTypeProtocol, Message: "malformed stream line", Cause: err}
		}

		emit(StreamEvent{Kind: EventProgress, Percent: chunk.Percent(), Status: chunk.Status})
		return false, nil
	})
	if err != nil {
		return err
	}
	emit(StreamEvent{Kind: EventDone})
	return nil
}
