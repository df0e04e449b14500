// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// request uses cbor tags, the convention for socket-only types.
type request struct {
	Action string `cbor:"action"`
	Limit  int    `cbor:"limit,omitempty"`
}

// line uses json tags, the convention for types also printed as JSON.
type line struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := request{Action: "lines", Limit: 20}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded request
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	fields := map[string]any{"action": "status", "limit": 5, "b": true, "a": "x"}

	first, err := Marshal(fields)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(fields)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	requests := []request{{Action: "activity"}, {Action: "screen-off"}, {Action: "lines", Limit: 3}}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, r := range requests {
		if err := encoder.Encode(r); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range requests {
		var got request
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode request %d: %v", i, err)
		}
		if got != want {
			t.Errorf("request %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestJSONTagFallbackAndTime(t *testing.T) {
	original := line{
		Time: time.Date(2026, 2, 1, 9, 0, 30, 123456789, time.UTC),
		Text: "screen dimmed to minimum (30s without activity)",
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"text"`) {
		t.Errorf("json tag name missing from %s", notation)
	}
	if !strings.Contains(notation, `"2026-02-01T09:00:30.123456789Z"`) {
		t.Errorf("time not encoded as RFC 3339 text: %s", notation)
	}

	var decoded line
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Time.Equal(original.Time) || decoded.Text != original.Text {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestOmitempty(t *testing.T) {
	with, err := Marshal(request{Action: "lines", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	without, err := Marshal(request{Action: "lines"})
	if err != nil {
		t.Fatal(err)
	}
	if len(without) >= len(with) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes", len(without), len(with))
	}
}

func TestDefaultMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"action": "lines", "nested": map[string]any{"limit": 3}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Errorf("nested decoded as %T, want map[string]any", top["nested"])
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var r request
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &r); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func BenchmarkMarshal(b *testing.B) {
	r := request{Action: "lines", Limit: 50}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(r)
	}
}
