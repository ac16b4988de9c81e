package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenBool
	tokenOperator // == != > <
	tokenAnd
	tokenOr
	tokenLeftParen
	tokenRightParen
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}

	if l.pos >= len(l.input) {
		return token{kind: tokenEOF}, nil
	}

	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++

		return token{kind: tokenLeftParen, text: "("}, nil
	case ch == ')':
		l.pos++

		return token{kind: tokenRightParen, text: ")"}, nil
	case ch == '\'' || ch == '"':
		return l.lexString(ch)
	case ch == '=' || ch == '!':
		if l.pos+1 >= len(l.input) || l.input[l.pos+1] != '=' {
			return token{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, string(ch), l.pos)
		}

		op := l.input[l.pos : l.pos+2]
		l.pos += 2

		return token{kind: tokenOperator, text: op}, nil
	case ch == '>' || ch == '<':
		l.pos++

		return token{kind: tokenOperator, text: string(ch)}, nil
	case ch == '&':
		if l.pos+1 >= len(l.input) || l.input[l.pos+1] != '&' {
			return token{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, string(ch), l.pos)
		}

		l.pos += 2

		return token{kind: tokenAnd, text: "&&"}, nil
	case ch == '|':
		if l.pos+1 >= len(l.input) || l.input[l.pos+1] != '|' {
			return token{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, string(ch), l.pos)
		}

		l.pos += 2

		return token{kind: tokenOr, text: "||"}, nil
	case ch == '-' || unicode.IsDigit(rune(ch)):
		return l.lexNumber()
	case ch == '_' || unicode.IsLetter(rune(ch)):
		return l.lexIdent()
	default:
		return token{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, string(ch), l.pos)
	}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos + 1
	end := strings.IndexByte(l.input[start:], quote)
	if end < 0 {
		return token{}, fmt.Errorf("%w: unterminated string at position %d", ErrSyntax, l.pos)
	}

	l.pos = start + end + 1

	return token{kind: tokenString, text: l.input[start : start+end]}, nil
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}

	for l.pos < len(l.input) && (unicode.IsDigit(rune(l.input[l.pos])) || l.input[l.pos] == '.') {
		l.pos++
	}

	text := l.input[start:l.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token{}, fmt.Errorf("%w: invalid number %q", ErrSyntax, text)
	}

	return token{kind: tokenNumber, text: text}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) {
		ch := rune(l.input[l.pos])
		if ch != '_' && ch != '.' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}

		l.pos++
	}

	text := l.input[start:l.pos]

	switch text {
	case "and":
		return token{kind: tokenAnd, text: text}, nil
	case "or":
		return token{kind: tokenOr, text: text}, nil
	case "true", "false":
		return token{kind: tokenBool, text: text}, nil
	default:
		return token{kind: tokenIdent, text: text}, nil
	}
}

// expression AST

type exprNode interface {
	eval(data map[string]any) (any, error)
}

type literalNode struct {
	value any
}

func (n literalNode) eval(_ map[string]any) (any, error) {
	return n.value, nil
}

type identNode struct {
	key string
}

func (n identNode) eval(data map[string]any) (any, error) {
	value, ok := data[n.key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, n.key)
	}

	return normalize(value), nil
}

type binaryNode struct {
	op          string
	left, right exprNode
}

func (n binaryNode) eval(data map[string]any) (any, error) {
	left, err := n.left.eval(data)
	if err != nil {
		return nil, err
	}

	// and/or short-circuit over boolean operands only.
	if n.op == "and" || n.op == "or" {
		return n.evalLogical(left, data)
	}

	right, err := n.right.eval(data)
	if err != nil {
		return nil, err
	}

	return compare(n.op, left, right)
}

func (n binaryNode) evalLogical(left any, data map[string]any) (any, error) {
	leftBool, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %q needs boolean operands, got %T", ErrTypeMismatch, n.op, left)
	}

	if n.op == "and" && !leftBool {
		return false, nil
	}

	if n.op == "or" && leftBool {
		return true, nil
	}

	right, err := n.right.eval(data)
	if err != nil {
		return nil, err
	}

	rightBool, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %q needs boolean operands, got %T", ErrTypeMismatch, n.op, right)
	}

	return rightBool, nil
}

func compare(op string, left, right any) (any, error) {
	leftNum, leftIsNum := left.(float64)
	rightNum, rightIsNum := right.(float64)

	switch op {
	case ">", "<":
		if !leftIsNum || !rightIsNum {
			return nil, fmt.Errorf("%w: %q needs numeric operands, got %T and %T", ErrTypeMismatch, op, left, right)
		}

		if op == ">" {
			return leftNum > rightNum, nil
		}

		return leftNum < rightNum, nil
	case "==", "!=":
		equal, err := valuesEqual(left, right)
		if err != nil {
			return nil, err
		}

		if op == "==" {
			return equal, nil
		}

		return !equal, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrSyntax, op)
	}
}

func valuesEqual(left, right any) (bool, error) {
	switch l := left.(type) {
	case float64:
		r, ok := right.(float64)
		if !ok {
			return false, equalityMismatch(left, right)
		}

		return l == r, nil
	case string:
		r, ok := right.(string)
		if !ok {
			return false, equalityMismatch(left, right)
		}

		return l == r, nil
	case bool:
		r, ok := right.(bool)
		if !ok {
			return false, equalityMismatch(left, right)
		}

		return l == r, nil
	default:
		return false, fmt.Errorf("%w: cannot compare %T values", ErrTypeMismatch, left)
	}
}

func equalityMismatch(left, right any) error {
	return fmt.Errorf("%w: cannot compare %T with %T", ErrTypeMismatch, left, right)
}

// normalize folds the numeric types that survive JSON decoding and plain Go
// construction into float64 so comparisons see one numeric type.
func normalize(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

// parser

type parser struct {
	lex     *lexer
	current token
}

func parse(input string) (exprNode, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.current.kind != tokenEOF {
		return nil, fmt.Errorf("%w: unexpected trailing %q", ErrSyntax, p.current.text)
	}

	return node, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}

	p.current = tok

	return nil
}

func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current.kind == tokenOr {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = binaryNode{op: "or", left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.current.kind == tokenAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		left = binaryNode{op: "and", left: left, right: right}
	}

	return left, nil
}

func (p *parser) parseComparison() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	if p.current.kind != tokenOperator {
		return left, nil
	}

	op := p.current.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	return binaryNode{op: op, left: left, right: right}, nil
}

func (p *parser) parseTerm() (exprNode, error) {
	switch p.current.kind {
	case tokenLeftParen:
		if err := p.advance(); err != nil {
			return nil, err
		}

		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if p.current.kind != tokenRightParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrSyntax)
		}

		if err := p.advance(); err != nil {
			return nil, err
		}

		return node, nil
	case tokenNumber:
		value, _ := strconv.ParseFloat(p.current.text, 64)
		if err := p.advance(); err != nil {
			return nil, err
		}

		return literalNode{value: value}, nil
	case tokenString:
		value := p.current.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		return literalNode{value: value}, nil
	case tokenBool:
		value := p.current.text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}

		return literalNode{value: value}, nil
	case tokenIdent:
		key := p.current.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		return identNode{key: key}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.current.text)
	}
}
