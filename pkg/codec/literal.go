package codec

import (
	"strconv"
	"strings"
)

// ParseLiteral infers an attribute value from a textual literal, as
// entered on the command line or in a query string. The first matching
// interpretation wins:
//
//	"true"/"false"          -> bool
//	decimal in int32 range  -> int
//	decimal in int64 range  -> int64
//	float                   -> float64
//	anything else           -> string
//
// A single-letter tag prefix forces the type and skips inference, e.g.
// "s:42" is the string "42" and "l:7" is the 64-bit integer 7. A forced
// tag whose payload does not parse falls back to the string value, the
// same recovery the decoder applies.
func ParseLiteral(literal string) any {
	if len(literal) > 1 && literal[1] == ':' {
		text := literal[2:]
		switch literal[0] {
		case tagInt:
			if n, err := strconv.ParseInt(text, 10, 32); err == nil {
				return int(n)
			}
			return text
		case tagLong:
			if n, err := strconv.ParseInt(text, 10, 64); err == nil {
				return n
			}
			return text
		case tagDouble:
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				return f
			}
			return text
		case tagString:
			return text
		case tagBool:
			return strings.EqualFold(text, "true")
		}
	}

	if strings.EqualFold(literal, "true") {
		return true
	}
	if strings.EqualFold(literal, "false") {
		return false
	}
	if n, err := strconv.ParseInt(literal, 10, 32); err == nil {
		return int(n)
	}
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return f
	}
	return literal
}
