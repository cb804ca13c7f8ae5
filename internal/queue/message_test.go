package queue

import (
	"strings"
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	got, err := DecodeMessage([]byte(`{"runId":"run-1","appId":"620","kind":"summary","requestId":"req-1","enqueuedAt":"2026-01-30T22:00:00Z","version":2}`))
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.RunID != "run-1" || got.AppID != "620" || got.Kind != "summary" || got.Version != MessageVersion {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestEncodeMessageUsesCamelCase(t *testing.T) {
	payload, err := EncodeMessage(Message{RunID: "run-1", Version: MessageVersion})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if !strings.Contains(string(payload), `"runId":"run-1"`) {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	if _, err := DecodeMessage([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
