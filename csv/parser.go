// Package csv is the thin delimited-text line parser the converter ingests
// rows through. It knows nothing about headers, numeric types, or the BMXt
// format — it only splits one line into fields under a quote-escaping
// grammar: an unquoted field is any run of bytes but the separator, a quoted
// field is wrapped in double quotes with "" as a literal double quote.
package csv

import (
	"fmt"

	"github.com/biomxt/biomxt/shared"
)

// CountFields reports how many fields line splits into under separator,
// without allocating any field storage. An unclosed quote is an error.
// A line that is empty after stripping a trailing \r\n yields zero fields.
func CountFields(line []byte, separator byte) (int, error) {
	end := TrimEOL(line)
	if end == 0 {
		return 0, nil
	}

	inQuote := false
	fieldStart := true
	count := 1
	for i := 0; i < end; i++ {
		c := line[i]
		switch {
		case c == '"' && (inQuote || fieldStart):
			if !inQuote {
				inQuote = true
			} else if i+1 < end && line[i+1] == '"' {
				i++
			} else {
				inQuote = false
			}
		case c == separator && !inQuote:
			count++
			fieldStart = true
			continue
		}
		fieldStart = false
	}
	if inQuote {
		return 0, fmt.Errorf("%w: unclosed quote", shared.ErrParse)
	}
	return count, nil
}

// ParseFields splits line into its fields under separator, writing each
// field into successive slots of fields. len(fields) must already be large
// enough to hold every field in the line — ParseFields does not grow it,
// and returns an error if the line has more fields than fields can hold.
// It returns the number of fields actually written.
func ParseFields(line []byte, separator byte, fields [][]byte) (int, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: fields buffer has zero capacity", shared.ErrBadArgument)
	}

	end := TrimEOL(line)
	if end == 0 {
		return 0, nil
	}

	inQuote := false
	cur := 0
	buf := make([]byte, 0, end)

	flush := func() error {
		fields[cur] = append(fields[cur][:0], buf...)
		buf = buf[:0]
		cur++
		if cur >= len(fields) {
			return fmt.Errorf("%w: line has more fields than the supplied buffer holds (%d)", shared.ErrParse, len(fields))
		}
		return nil
	}

	fieldStart := true
	for i := 0; i < end; i++ {
		c := line[i]
		switch {
		case c == '"' && (inQuote || fieldStart):
			if !inQuote {
				inQuote = true
			} else if i+1 < end && line[i+1] == '"' {
				buf = append(buf, '"')
				i++
			} else {
				inQuote = false
			}
		case c == separator && !inQuote:
			if err := flush(); err != nil {
				return 0, err
			}
			fieldStart = true
			continue
		default:
			buf = append(buf, c)
		}
		fieldStart = false
	}

	if inQuote {
		return 0, fmt.Errorf("%w: unclosed quote", shared.ErrParse)
	}

	fields[cur] = append(fields[cur][:0], buf...)
	cur++

	return cur, nil
}

// TrimEOL returns the length of line with any trailing \r and \n stripped.
func TrimEOL(line []byte) int {
	end := len(line)
	for end > 0 && (line[end-1] == '\r' || line[end-1] == '\n') {
		end--
	}
	return end
}
