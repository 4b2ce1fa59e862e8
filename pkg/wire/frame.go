package wire

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// Writer serializes protocol lines onto one output stream. Every line is
// written and flushed under a single lock so concurrent responses and
// events never interleave.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteLine writes line followed by a newline and flushes.
func (w *Writer) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.WriteString(line); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteResponse encodes and writes a RES line.
func (w *Writer) WriteResponse(resp Response) error {
	return w.WriteLine(EncodeResponse(resp))
}

// WriteEvent encodes and writes an EVT line.
func (w *Writer) WriteEvent(evt Event) error {
	return w.WriteLine(EncodeEvent(evt))
}

// LineReader yields trimmed, non-empty lines from r.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next non-empty line. A final line without a newline is
// still returned; io.EOF is reported once the stream is exhausted.
func (l *LineReader) Next() (string, error) {
	for {
		raw, err := l.r.ReadString('\n')
		line := strings.TrimSpace(raw)
		if line != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}
