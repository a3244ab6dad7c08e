// Package sentinel implements the line protocol used to hand key/value pairs
// to a calling orchestrator.
//
// Each pair is printed on its own line as
//
//	##gbStart##<key>##splitKeyValue##<value>##gbEnd##
//
// and may be interleaved with free-form log lines, which Parse ignores.
package sentinel

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Protocol tokens.
const (
	Start = "##gbStart##"
	Split = "##splitKeyValue##"
	End   = "##gbEnd##"
)

// Pair is a single key/value emitted on the protocol.
type Pair struct {
	Key   string
	Value string
}

// Format wraps key and value in the sentinel tokens.
func Format(key, value string) string {
	return Start + key + Split + value + End
}

// Writer emits sentinel lines to an underlying writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that prints to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Emit prints one sentinel line.
func (w *Writer) Emit(key, value string) error {
	if _, err := fmt.Fprintln(w.w, Format(key, value)); err != nil {
		return fmt.Errorf("failed to emit %s: %w", key, err)
	}
	return nil
}

// Parse extracts the pair from a single line. ok is false when the line does
// not carry a complete sentinel frame.
func Parse(line string) (Pair, bool) {
	start := strings.Index(line, Start)
	if start < 0 {
		return Pair{}, false
	}
	rest := line[start+len(Start):]

	end := strings.LastIndex(rest, End)
	if end < 0 {
		return Pair{}, false
	}
	body := rest[:end]

	key, value, found := strings.Cut(body, Split)
	if !found {
		return Pair{}, false
	}
	return Pair{Key: key, Value: value}, true
}

// ParseAll scans r line by line and returns every pair found, in order.
func ParseAll(r io.Reader) ([]Pair, error) {
	var pairs []Pair
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if p, ok := Parse(scanner.Text()); ok {
			pairs = append(pairs, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sentinel output: %w", err)
	}
	return pairs, nil
}
