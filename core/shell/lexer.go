package shell

import (
	"strings"
	"unicode"
)

// TokenKind distinguishes plain words from control operators.
type TokenKind int

const (
	// TokenWord is a command name, argument or redirection target.
	TokenWord TokenKind = iota
	// TokenOp is a control or redirection operator.
	TokenOp
)

// Token is one lexed unit of a command line.
//
// Word text uses backslash escapes to mark characters that quoting
// protected from expansion: the expansion engine treats `\x` as the
// literal x and the final unescape pass removes the backslashes. The
// Quoted flag is set when any part of the word was quoted or escaped
// and suppresses field splitting and globbing for the whole word.
type Token struct {
	Text   string
	Kind   TokenKind
	Quoted bool
}

// Op reports whether the token is the given operator.
func (t Token) Op(text string) bool {
	return t.Kind == TokenOp && t.Text == text
}

// operators the lexer recognizes, longest match first.
var operatorPrefixes = []string{
	"&>>", "2>>", "&&", "||", ";;", "&>", "2>", ">>", "<<",
	"|", ";", "&", "<", ">",
}

// Tokenize splits a logical line into quote- and escape-aware tokens.
// Backslash-newline joining happens before this, in logical line
// assembly.
func Tokenize(line string) ([]Token, error) {
	var (
		tokens  []Token
		buf     strings.Builder
		started bool // a word is in progress, possibly empty ("")
		quoted  bool // the word in progress saw quoting or escapes
	)

	flush := func() {
		if started || buf.Len() > 0 {
			tokens = append(tokens, Token{Text: buf.String(), Kind: TokenWord, Quoted: quoted})
		}
		buf.Reset()
		started = false
		quoted = false
	}

	runes := []rune(line)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '\\':
			if i+1 < len(runes) {
				buf.WriteRune('\\')
				buf.WriteRune(runes[i+1])
				started, quoted = true, true
				i += 2
			} else {
				// A trailing backslash joined a physical line upstream.
				i++
			}

		case c == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return nil, &SyntaxError{Msg: "unbalanced single quote"}
			}
			for _, r := range runes[i+1 : end] {
				buf.WriteRune('\\')
				buf.WriteRune(r)
			}
			started, quoted = true, true
			i = end + 1

		case c == '"':
			var err error
			i, err = lexDoubleQuoted(runes, i+1, &buf)
			if err != nil {
				return nil, err
			}
			started, quoted = true, true

		case c == '$':
			n, err := lexDollar(runes, i, &buf)
			if err != nil {
				return nil, err
			}
			started = true
			i = n

		case unicode.IsSpace(c):
			flush()
			i++

		case c == '#' && !started && buf.Len() == 0:
			// Comment to end of line, but only at a word boundary so
			// mid-word hashes survive.
			i = len(runes)

		case strings.ContainsRune("|&;<>", c):
			op := matchOperator(runes[i:], buf.String(), quoted)
			if op == "" {
				buf.WriteRune(c)
				started = true
				i++
				break
			}
			if strings.HasPrefix(op, "2") {
				// The fd digit was already buffered as a word.
				buf.Reset()
				started = false
				quoted = false
			}
			flush()
			tokens = append(tokens, Token{Text: op, Kind: TokenOp})
			i += len(op)

		default:
			buf.WriteRune(c)
			started = true
			i++
		}
	}
	flush()
	return tokens, nil
}

// matchOperator returns the operator starting at runes[0], or "" when
// the character is not an operator here. A buffered lone "2" merges
// into 2> / 2>> like a file descriptor prefix.
func matchOperator(runes []rune, pending string, pendingQuoted bool) string {
	rest := string(runes)
	if runes[0] == '>' && pending == "2" && !pendingQuoted {
		if strings.HasPrefix(rest, ">>") {
			return "2>>"
		}
		return "2>"
	}
	for _, op := range operatorPrefixes {
		if strings.HasPrefix(op, "2") {
			continue
		}
		if strings.HasPrefix(rest, op) {
			return op
		}
	}
	return ""
}

// lexDoubleQuoted copies a double-quoted span into buf, escaping glob
// metacharacters and literal backslashes so later passes leave them
// alone while $ remains live for expansion. Returns the index past the
// closing quote.
func lexDoubleQuoted(runes []rune, i int, buf *strings.Builder) (int, error) {
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '"':
			return i + 1, nil
		case c == '\\' && i+1 < len(runes) && strings.ContainsRune(`$"\`, runes[i+1]):
			buf.WriteRune('\\')
			buf.WriteRune(runes[i+1])
			i += 2
		case c == '\\':
			buf.WriteString(`\\`)
			i++
		case c == '$':
			var err error
			i, err = lexDollar(runes, i, buf)
			if err != nil {
				return 0, err
			}
		case strings.ContainsRune("*?[]", c):
			buf.WriteRune('\\')
			buf.WriteRune(c)
			i++
		default:
			buf.WriteRune(c)
			i++
		}
	}
	return 0, &SyntaxError{Msg: "unbalanced double quote"}
}

// lexDollar copies a $ expression verbatim, spanning ${...} and $(...)
// bodies so their content never splits words or starts comments.
// Returns the index past the expression.
func lexDollar(runes []rune, i int, buf *strings.Builder) (int, error) {
	buf.WriteRune('$')
	i++
	if i >= len(runes) {
		return i, nil
	}

	switch runes[i] {
	case '{':
		depth := 0
		for i < len(runes) {
			buf.WriteRune(runes[i])
			switch runes[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
			if depth == 0 {
				return i, nil
			}
		}
		return 0, &SyntaxError{Msg: "unbalanced ${"}
	case '(':
		depth := 0
		for i < len(runes) {
			buf.WriteRune(runes[i])
			switch runes[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			i++
			if depth == 0 {
				return i, nil
			}
		}
		return 0, &SyntaxError{Msg: "unbalanced $("}
	}
	return i, nil
}

// Unescape removes the protection backslashes from lexed word text,
// producing the literal characters of the word.
func Unescape(text string) string {
	var out strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
		}
		out.WriteRune(runes[i])
	}
	return out.String()
}
