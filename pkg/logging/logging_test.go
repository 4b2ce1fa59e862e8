package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rfidenter/uhfbridge/pkg/config"
)

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("uhf-bridge", &buf)
	if err := l.Configure(config.LoggingConfig{Level: "warn"}); err != nil {
		t.Fatal(err)
	}
	l.Infof("quiet %d", 1)
	l.Warnf("loud %d", 2)
	l.Printer(LevelDebug).Printf("driver chatter")
	l.Printer(LevelError).Printf("driver fault")
	out := buf.String()
	if strings.Contains(out, "quiet") || strings.Contains(out, "driver chatter") {
		t.Fatalf("suppressed message written: %q", out)
	}
	if !strings.Contains(out, "WARN loud 2") || !strings.Contains(out, "ERROR driver fault") {
		t.Fatalf("warn message missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int{"DEBUG": LevelDebug, " warning ": LevelWarn, "error": LevelError, "": LevelInfo, "bogus": LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestConfigureFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "bridge.log")
	l := NewWithWriter("uhf-bridge", &buf)
	if err := l.Configure(config.LoggingConfig{FilePath: path}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	l.Infof("connected")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "INFO connected") || !strings.Contains(buf.String(), "INFO connected") {
		t.Fatalf("file=%q stderr=%q", data, buf.String())
	}
}

func TestRollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	rf, err := newRollingFile(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 2; i++ {
		if _, err := rf.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Fatalf("current size = %d", info.Size())
	}
}
