package logging

import (
	"bytes"
	"log/slog"
	"strings"
)

// Writer is an io.Writer that forwards subprocess output to slog at debug level,
// one record per line.
type Writer struct {
	logger *slog.Logger
	msg    string
	buf    bytes.Buffer
}

// NewWriter constructs a Writer bound to the provided logger. msg names the records.
func NewWriter(logger *slog.Logger, msg string) *Writer {
	if msg == "" {
		msg = "command output"
	}
	return &Writer{logger: logger, msg: msg}
}

// Write logs every complete line in p; a trailing partial line waits for Flush or more input.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the unterminated remainder for the next call.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *Writer) Flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *Writer) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || w.logger == nil {
		return
	}
	w.logger.Debug(w.msg, "line", line)
}
