package core

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHexToBytes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want []byte
	}{
		{"1", 4, []byte{0x01, 0, 0, 0}},
		{"AABBCCDDEE", 4, []byte{0xAA, 0xBB, 0xCC, 0xDD}},
		{"00000000", 4, []byte{0, 0, 0, 0}},
		{"0x12-34 zz56", 0, []byte{0x12, 0x34, 0x56}},
		{"", 4, []byte{0, 0, 0, 0}},
		{"abc", 0, []byte{0x0a, 0xbc}},
	}
	for _, tc := range cases {
		got := HexToBytes(tc.in, tc.n)
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("HexToBytes(%q, %d) = %x, want %x", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestBytesToHex(t *testing.T) {
	if got := BytesToHex([]byte{0x0a, 0xff, 0x00}); got != "0AFF00" {
		t.Fatalf("got %s", got)
	}
}

func TestBaudCandidates(t *testing.T) {
	t.Run("no preference", func(t *testing.T) {
		want := []int{57600, 115200, 38400, 19200, 9600, 230400}
		if diff := cmp.Diff(want, BaudCandidates(0)); diff != "" {
			t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("preferred from fallback list", func(t *testing.T) {
		want := []int{9600, 57600, 115200, 38400, 19200, 230400}
		if diff := cmp.Diff(want, BaudCandidates(9600)); diff != "" {
			t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("custom preference", func(t *testing.T) {
		got := BaudCandidates(4800)
		if len(got) != 7 || got[0] != 4800 {
			t.Fatalf("unexpected candidates %v", got)
		}
	})
	t.Run("negative ignored", func(t *testing.T) {
		if got := BaudCandidates(-5); len(got) != len(FallbackBauds) {
			t.Fatalf("unexpected candidates %v", got)
		}
	})
}

func TestNormalizeMode(t *testing.T) {
	for in, want := range map[string]string{
		"":          ModeTCP,
		"TCP":       ModeTCP,
		"serial":    ModeSerial,
		" USB ":     ModeSerial,
		"rs232":     ModeSerial,
		"bluetooth": ModeTCP,
	} {
		if got := NormalizeMode(in); got != want {
			t.Fatalf("NormalizeMode(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFirmwareString(t *testing.T) {
	if got := FirmwareString(0x76, 1, 2); got != "UHF7189M--01.02" {
		t.Fatalf("got %s", got)
	}
	if got := FirmwareString(0x00, 10, 3); got != "UHFREADER288--10.03" {
		t.Fatalf("got %s", got)
	}
}

func TestFrequencyBytes(t *testing.T) {
	got := FrequencyBytes(902750)
	want := []byte{0x00, 0x0D, 0xC6, 0x5E}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestZeroBasedAntenna(t *testing.T) {
	for in, want := range map[int]byte{0: 0, 1: 0, 2: 1, -3: 0, 300: 255, 256: 255} {
		if got := ZeroBasedAntenna(in); got != want {
			t.Fatalf("ZeroBasedAntenna(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNewIDMonotonic(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 26 || a >= b {
		t.Fatalf("expected increasing ULIDs, got %s then %s", a, b)
	}
}
