package ingest

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress(" 0x1111111111111111111111111111111111111111 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != common.HexToAddress("0x1111111111111111111111111111111111111111") {
		t.Fatalf("address mismatch: %s", got.Hex())
	}

	if _, err := ParseAddress("not-an-address"); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func TestParseEventNames(t *testing.T) {
	topic := "0x0000000000000000000000000000000000000000000000000000000000000001"
	names, err := ParseEventNames([]string{topic + "=ApiKeyUpdated", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names[common.HexToHash(topic)] != "ApiKeyUpdated" {
		t.Fatalf("mapping mismatch: %v", names)
	}

	if _, err := ParseEventNames([]string{"missing-separator"}); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
	if _, err := ParseEventNames([]string{"0x01=Short"}); err == nil {
		t.Fatalf("expected error for short topic")
	}
}
