// Package debug holds output helpers for the format exploration tools.
package debug

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	for range depth {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// DataBlock renders a raw chunk payload after the label: mostly printable
// payloads are quoted with NUL separators shown as "|", binary ones are hex
// encoded. Payloads longer than limit are truncated; limit <= 0 disables
// truncation.
func (tw TreeWriter) DataBlock(depth int, label string, data []byte, limit int) {
	for range depth {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(label)
	if len(data) != 0 {
		tw.w.WriteByte(' ')
		tw.w.WriteString(encodeData(data, limit))
	}
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

func encodeData(data []byte, limit int) string {
	truncated := false
	if limit > 0 && len(data) > limit {
		data = data[:limit]
		truncated = true
	}

	printable := 0
	for _, b := range data {
		if b == 0 || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}

	var out string
	if printable*10 >= len(data)*9 {
		out = strconv.Quote(string(bytes.ReplaceAll(data, []byte{0}, []byte{'|'})))
	} else {
		out = fmt.Sprintf("% x", data)
	}
	if truncated {
		out += "..."
	}
	return out
}
