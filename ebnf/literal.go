package ebnf

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/lexer"
)

// unescapeString decodes the body of a double-quoted string token (quotes
// already stripped): \\, \", \n, \r, \t, \xXX, \uXXXX, \UXXXXXXXX.
func unescapeString(t *lexer.Token, body string) (string, error) {
	var out []byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(body) {
			return "", badEscapeError(t, body[i-1:])
		}
		decoded, adv, err := decodeEscape(t, body[i:])
		if err != nil {
			return "", err
		}
		out = append(out, decoded...)
		i += adv - 1
	}
	return string(out), nil
}

func decodeEscape(t *lexer.Token, rest string) (decoded []byte, consumed int, err error) {
	switch rest[0] {
	case '\\':
		return []byte{'\\'}, 1, nil
	case '"':
		return []byte{'"'}, 1, nil
	case 'n':
		return []byte{'\n'}, 1, nil
	case 'r':
		return []byte{'\r'}, 1, nil
	case 't':
		return []byte{'\t'}, 1, nil
	case 'x':
		return decodeHexEscape(t, rest, 2)
	case 'u':
		return decodeHexEscape(t, rest, 4)
	case 'U':
		return decodeHexEscape(t, rest, 8)
	default:
		return nil, 0, badEscapeError(t, "\\"+string(rest[0]))
	}
}

func decodeHexEscape(t *lexer.Token, rest string, hexLen int) ([]byte, int, error) {
	if len(rest) < 1+hexLen {
		return nil, 0, badEscapeError(t, rest)
	}
	code, err := strconv.ParseInt(rest[1:1+hexLen], 16, 32)
	if err != nil {
		return nil, 0, badEscapeError(t, rest[:1+hexLen])
	}
	return []byte(string(rune(code))), 1 + hexLen, nil
}

// parseCharClass decodes a "[...]" token body (brackets already stripped)
// into sorted, non-overlapping CharRanges plus its negation flag, matching
// the §3.1 invariant that character classes store sorted ranges.
func parseCharClass(t *lexer.Token, body string) (ranges []grammar.CharRange, negated bool, err error) {
	i := 0
	if i < len(body) && body[i] == '^' {
		negated = true
		i++
	}

	var runes []rune
	var lo *rune
	for i < len(body) {
		var r rune
		if body[i] == '\\' {
			decoded, adv, derr := decodeEscape(t, body[i+1:])
			if derr != nil {
				return nil, false, derr
			}
			rs := []rune(string(decoded))
			if len(rs) != 1 {
				return nil, false, badCharClassError(t, "escape must decode to a single rune")
			}
			r = rs[0]
			i += 1 + adv
		} else {
			r = rune(body[i])
			i++
		}

		if lo == nil && i < len(body) && body[i] == '-' && i+1 < len(body) {
			saved := r
			lo = &saved
			i++
			continue
		}

		if lo != nil {
			ranges = append(ranges, grammar.CharRange{Lo: *lo, Hi: r})
			lo = nil
		} else {
			runes = append(runes, r)
		}
	}

	if lo != nil {
		return nil, false, badCharClassError(t, "dangling range")
	}

	for _, r := range runes {
		ranges = append(ranges, grammar.CharRange{Lo: r, Hi: r})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	return mergeRanges(ranges), negated, nil
}

func mergeRanges(ranges []grammar.CharRange) []grammar.CharRange {
	if len(ranges) == 0 {
		return ranges
	}
	merged := []grammar.CharRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
		} else {
			merged = append(merged, r)
		}
	}
	return merged
}

func quoteToken(text string) (string, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", fmt.Errorf("not a quoted string: %q", text)
	}
	return text[1 : len(text)-1], nil
}
