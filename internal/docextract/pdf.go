package docextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var errNoText = errors.New("no text content found in pdf")

// extractPDFText returns the text of at most maxPages pages, pages separated by
// a blank line.
func extractPDFText(data []byte, maxPages int) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, pages, err = "", 0, fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, fmt.Errorf("pdfcpu read: %w", err)
	}

	limit := ctx.PageCount
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= limit; pageNr++ {
		pageText := strings.TrimSpace(extractPageText(ctx, pageNr))
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	if sb.Len() == 0 {
		return "", limit, errNoText
	}
	return sb.String(), limit, nil
}

func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// textFromContentStream interprets the text-showing operators of a content
// stream. Positioning operators become line breaks or spaces.
func textFromContentStream(data []byte) string {
	var (
		sb       strings.Builder
		operands []operand
	)
	newline := func() {
		s := sb.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		s := sb.String()
		if len(s) > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			sb.WriteByte(' ')
		}
	}

	lx := &lexer{data: data}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok.operand)
			continue
		}
		switch tok.op {
		case "Tj":
			if s, ok := lastString(operands); ok {
				sb.WriteString(s)
			}
		case "'", `"`:
			newline()
			if s, ok := lastString(operands); ok {
				sb.WriteString(s)
			}
		case "TJ":
			if len(operands) > 0 {
				for _, el := range operands[len(operands)-1].array {
					if el.isString {
						sb.WriteString(el.str)
					} else if el.num < -250 {
						space()
					}
				}
			}
		case "Td", "TD":
			if len(operands) >= 2 && operands[len(operands)-1].num != 0 {
				newline()
			} else {
				space()
			}
		case "T*", "ET", "Tm":
			newline()
		case "BI":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
	return sb.String()
}

type tokKind int

const (
	tokOperand tokKind = iota
	tokOperator
)

type operand struct {
	isString bool
	str      string
	num      float64
	array    []operand
}

type token struct {
	kind    tokKind
	op      string
	operand operand
}

func lastString(ops []operand) (string, bool) {
	if len(ops) == 0 || !ops[len(ops)-1].isString {
		return "", false
	}
	return ops[len(ops)-1].str, true
}

type lexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isSpace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) next() (token, bool) {
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.data) {
			return token{}, false
		}
		c := l.data[l.pos]
		switch {
		case c == '(':
			l.pos++
			return token{kind: tokOperand, operand: operand{isString: true, str: decodeBytes(l.literal())}}, true
		case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
			l.skipDict()
			continue
		case c == '<':
			l.pos++
			return token{kind: tokOperand, operand: operand{isString: true, str: decodeBytes(l.hex())}}, true
		case c == '[':
			l.pos++
			return token{kind: tokOperand, operand: operand{array: l.array()}}, true
		case c == '/':
			l.pos++
			l.word()
			return token{kind: tokOperand}, true
		case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
			l.pos++
			continue
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				return token{kind: tokOperand, operand: operand{num: f}}, true
			}
			return token{kind: tokOperator, op: w}, true
		}
	}
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *lexer) literal() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						val = val*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func (l *lexer) hex() []byte {
	var digits []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out
}

func (l *lexer) array() []operand {
	var out []operand
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.data) {
			return out
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return out
		}
		tok, ok := l.next()
		if !ok {
			return out
		}
		if tok.kind == tokOperand {
			out = append(out, tok.operand)
		}
	}
}

func (l *lexer) skipDict() {
	depth := 0
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == '<' && l.data[l.pos+1] == '<' {
			depth++
			l.pos += 2
			continue
		}
		if l.data[l.pos] == '>' && l.data[l.pos+1] == '>' {
			depth--
			l.pos += 2
			if depth == 0 {
				return
			}
			continue
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// skipInlineImage jumps past BI ... ID <binary> EI.
func (l *lexer) skipInlineImage() {
	idx := bytes.Index(l.data[l.pos:], []byte("ID"))
	if idx < 0 {
		l.pos = len(l.data)
		return
	}
	l.pos += idx + 2
	for l.pos+2 < len(l.data) {
		if isSpace(l.data[l.pos]) && l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 == len(l.data) || isSpace(l.data[l.pos+3])) {
			l.pos += 3
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// decodeBytes maps string bytes to text: UTF-16BE when BOM-prefixed, Latin-1
// otherwise. Non-printable runes are dropped.
func decodeBytes(b []byte) string {
	var runes []rune
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		runes = utf16.Decode(u)
	} else {
		runes = make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
	}
	var sb strings.Builder
	for _, r := range runes {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
