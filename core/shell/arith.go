package shell

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// evalArith evaluates the body of a $((...)) expansion: signed integer
// arithmetic with + - * / % **, standard precedence and parentheses.
// Bare or $-prefixed names resolve through the variable lookup, unset
// or non-numeric values count as zero.
func (sh *Shell) evalArith(expr string) (int64, error) {
	p := &arithParser{input: []rune(expr), lookup: sh.lookupParam}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, &ArithmeticError{Msg: fmt.Sprintf("unexpected %q in %q", string(p.input[p.pos]), expr)}
	}
	return value, nil
}

type arithParser struct {
	input  []rune
	pos    int
	lookup func(name string) (string, bool)
}

func (p *arithParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *arithParser) peek() rune {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseSum handles + and -, the loosest binding level.
func (p *arithParser) parseSum() (int64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseProduct handles * / and %, but lets ** through to parsePower.
func (p *arithParser) parseProduct() (int64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch {
		case p.peek() == '*' && !(p.pos+1 < len(p.input) && p.input[p.pos+1] == '*'):
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.peek() == '/':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, &ArithmeticError{Msg: "division by zero"}
			}
			left /= right
		case p.peek() == '%':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, &ArithmeticError{Msg: "modulo by zero"}
			}
			left %= right
		default:
			return left, nil
		}
	}
}

// parsePower handles **, right-associative and tighter than * / %.
func (p *arithParser) parsePower() (int64, error) {
	base, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos+1 < len(p.input) && p.input[p.pos] == '*' && p.input[p.pos+1] == '*' {
		p.pos += 2
		exp, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		return intPow(base, exp)
	}
	return base, nil
}

func (p *arithParser) parseUnary() (int64, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *arithParser) parseAtom() (int64, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, &ArithmeticError{Msg: "unexpected end of expression"}
	}

	c := p.input[p.pos]
	switch {
	case c == '(':
		p.pos++
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, &ArithmeticError{Msg: "missing closing parenthesis"}
		}
		p.pos++
		return value, nil

	case unicode.IsDigit(c):
		start := p.pos
		for p.pos < len(p.input) && unicode.IsDigit(p.input[p.pos]) {
			p.pos++
		}
		value, err := strconv.ParseInt(string(p.input[start:p.pos]), 10, 64)
		if err != nil {
			return 0, &ArithmeticError{Msg: fmt.Sprintf("bad number %q", string(p.input[start:p.pos]))}
		}
		return value, nil

	case c == '$' || isNameStart(c):
		if c == '$' {
			p.pos++
			if p.pos < len(p.input) && p.input[p.pos] == '{' {
				p.pos++
				end := p.pos
				for end < len(p.input) && p.input[end] != '}' {
					end++
				}
				if end >= len(p.input) {
					return 0, &ArithmeticError{Msg: "unbalanced ${ in expression"}
				}
				name := string(p.input[p.pos:end])
				p.pos = end + 1
				return p.resolve(name), nil
			}
		}
		start := p.pos
		for p.pos < len(p.input) && isNameRune(p.input[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			return 0, &ArithmeticError{Msg: "expected a name after $"}
		}
		return p.resolve(string(p.input[start:p.pos])), nil
	}
	return 0, &ArithmeticError{Msg: fmt.Sprintf("unexpected %q", string(c))}
}

func (p *arithParser) resolve(name string) int64 {
	value, ok := p.lookup(name)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func intPow(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, &ArithmeticError{Msg: "negative exponent"}
	}
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result, nil
}

func isNameStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isNameRune(c rune) bool {
	return isNameStart(c) || unicode.IsDigit(c)
}
