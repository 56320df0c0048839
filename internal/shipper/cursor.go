package shipper

import (
	"bytes"
	"strings"
)

// cursor remembers how much of the cumulative container output has been
// turned into records.
type cursor struct {
	offset int
}

// advance returns the lines of out past the cursor and moves the cursor
// behind them. Unless final is set, a trailing line without terminator is
// left for a later call. reset reports that out was shorter than what was
// already consumed, in which case all of out is considered new.
func (c *cursor) advance(out []byte, final bool) (lines []string, reset bool) {
	if len(out) < c.offset {
		c.offset = 0
		reset = true
	}

	delta := out[c.offset:]
	end := len(delta)
	if !final {
		end = bytes.LastIndexAny(delta, "\r\n") + 1
	}
	c.offset += end
	return splitLines(delta[:end]), reset
}

// splitLines splits on \n, \r\n and \r, dropping empty lines.
func splitLines(b []byte) []string {
	fields := bytes.FieldsFunc(b, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, strings.ToValidUTF8(string(f), "�"))
	}
	return lines
}
