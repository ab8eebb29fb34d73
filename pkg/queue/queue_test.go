package queue

import (
	"encoding/json"
	"testing"
)

type testPayload struct {
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit"`
}

func TestParsePayloadTyped(t *testing.T) {
	in := testPayload{Symbol: "VTI", Limit: 3}

	got, err := ParsePayload[testPayload](in)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if got.Symbol != "VTI" || got.Limit != 3 {
		t.Fatalf("value round trip: %+v", got)
	}

	got, err = ParsePayload[testPayload](&in)
	if err != nil {
		t.Fatalf("pointer: %v", err)
	}
	if got != &in {
		t.Fatalf("pointer payload copied")
	}
}

func TestParsePayloadDecodedJSON(t *testing.T) {
	// After a Redis round trip the payload arrives as map[string]interface{}.
	m := map[string]interface{}{"symbol": "SPY", "limit": float64(10)}
	got, err := ParsePayload[testPayload](m)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if got.Symbol != "SPY" || got.Limit != 10 {
		t.Fatalf("map round trip: %+v", got)
	}

	raw := json.RawMessage(`{"symbol":"QQQ","limit":5}`)
	got, err = ParsePayload[testPayload](raw)
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if got.Symbol != "QQQ" || got.Limit != 5 {
		t.Fatalf("raw round trip: %+v", got)
	}
}

func TestParsePayloadRejectsOtherTypes(t *testing.T) {
	if _, err := ParsePayload[testPayload](42); err == nil {
		t.Fatalf("expected error for int payload")
	}
	if _, err := ParsePayload[testPayload](nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}
