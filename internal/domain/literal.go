package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformedLiteral wraps every mapping literal parse failure.
var ErrMalformedLiteral = errors.New("malformed mapping literal")

// ParseMappingLiteral parses a serialized mapping such as
//
//	{'Type 2': 2, "CCS": {'count': 1, 'power': 50.0}}
//
// Python-style literals (single or double quoted strings, ints, floats,
// True/False/None, lists, tuples, nested dicts) and their JSON spellings are
// accepted. Keys are rendered to strings. Nothing is evaluated. Blank input is
// an empty mapping.
func ParseMappingLiteral(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]any{}, nil
	}
	p := &literalParser{src: s}
	p.skipSpace()
	if p.peek() != '{' {
		return nil, p.errorf("expected '{'")
	}
	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, p.errorf("unexpected trailing input")
	}
	return v.(map[string]any), nil
}

// maxLiteralDepth bounds nesting so hostile cells cannot blow the stack.
const maxLiteralDepth = 32

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformedLiteral, fmt.Sprintf(format, args...), p.pos)
}

func (p *literalParser) done() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.done() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) parseValue(depth int) (any, error) {
	if depth > maxLiteralDepth {
		return nil, p.errorf("nesting deeper than %d", maxLiteralDepth)
	}
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '{':
		return p.parseDict(depth)
	case c == '[':
		return p.parseSeq(depth, '[', ']')
	case c == '(':
		return p.parseSeq(depth, '(', ')')
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

func (p *literalParser) parseDict(depth int) (any, error) {
	p.pos++ // '{'
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}
		key, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		keyStr, ok := literalKey(key)
		if !ok {
			return nil, p.errorf("unhashable key")
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.pos++
		val, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		out[keyStr] = val

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *literalParser) parseSeq(depth int, open, closing byte) (any, error) {
	p.pos++ // open
	out := []any{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return out, nil
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '%c' to close '%c'", closing, open)
		}
	}
}

func (p *literalParser) parseString() (any, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for !p.done() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.parseEscape(&b); err != nil {
				return nil, err
			}
		case c == '\n':
			return nil, p.errorf("newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errorf("unterminated string")
}

// parseEscape decodes the backslash escape at p.pos into b. Unknown escapes
// keep their backslash; named \N{...} escapes are rejected.
func (p *literalParser) parseEscape(b *strings.Builder) error {
	rest := p.src[p.pos:]
	if len(rest) < 2 {
		return p.errorf("unterminated escape")
	}
	switch c := rest[1]; {
	case c == '\'' || c == '"':
		b.WriteByte(c)
		p.pos += 2
		return nil
	case c == 'N':
		return p.errorf("unsupported named escape")
	case strings.IndexByte(`\abfnrtvxuU01234567`, c) < 0:
		b.WriteString(rest[:2])
		p.pos += 2
		return nil
	}

	r, _, tail, err := strconv.UnquoteChar(rest, 0)
	if err != nil {
		return p.errorf("invalid escape %q", rest[:2])
	}
	b.WriteRune(r)
	p.pos += len(rest) - len(tail)
	return nil
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	for !p.done() && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	tok := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number %q", tok)
	}
	return f, nil
}

func (p *literalParser) parseKeyword() (any, error) {
	start := p.pos
	for !p.done() && (unicode.IsLetter(rune(p.src[p.pos])) || p.src[p.pos] == '_') {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	case "":
		return nil, p.errorf("unexpected character %q", p.peek())
	default:
		p.pos = start
		return nil, p.errorf("unsupported identifier %q", word)
	}
}

// literalKey renders a hashable scalar key as a string.
func literalKey(v any) (string, bool) {
	switch k := v.(type) {
	case string:
		return k, true
	case int64:
		return strconv.FormatInt(k, 10), true
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64), true
	case bool:
		if k {
			return "True", true
		}
		return "False", true
	case nil:
		return "None", true
	default:
		return "", false
	}
}
