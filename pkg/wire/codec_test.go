package wire

import (
	"errors"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest("REQ\t7\tCONNECT\t{\"mode\":\"serial\",\"baud\":9600}")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.ID != 7 || req.Command != "CONNECT" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Args["mode"] != "serial" || req.Args["baud"] != 9600 {
		t.Fatalf("unexpected args %+v", req.Args)
	}

	req, err = DecodeRequest("REQ\tabc\tSTATUS")
	if err != nil {
		t.Fatalf("decode without args: %v", err)
	}
	if req.ID != -1 || len(req.Args) != 0 {
		t.Fatalf("unexpected request %+v", req)
	}

	for _, line := range []string{"RES\t1\tSTATUS", "REQ\t1", "hello", ""} {
		if _, err := DecodeRequest(line); !errors.Is(err, ErrMalformedRequest) {
			t.Fatalf("DecodeRequest(%q) err = %v, want ErrMalformedRequest", line, err)
		}
	}
}

func TestEncodeLines(t *testing.T) {
	if got := EncodeResponse(Response{ID: 3, OK: true}); got != "RES\t3\tOK\t{}" {
		t.Fatalf("got %q", got)
	}
	if got := EncodeResponse(Response{ID: 3, OK: true, Payload: map[string]any{"rc": 0}}); got != "RES\t3\tOK\t{\"rc\":0}" {
		t.Fatalf("got %q", got)
	}
	if got := EncodeResponse(Response{ID: 4, Error: "boom\nline\ttwo\r"}); got != "RES\t4\tERR\tboom line two " {
		t.Fatalf("got %q", got)
	}
	if got := EncodeEvent(Event{Type: EventReadOver, Payload: map[string]any{"ok": true}}); got != "EVT\tREAD_OVER\t{\"ok\":true}" {
		t.Fatalf("got %q", got)
	}
}
