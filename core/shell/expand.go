package shell

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"josephlewis.net/vsh/core/vos"
)

// ExpandWord runs a single word through parameter, command and
// arithmetic substitution, then field splitting and globbing. Quoted
// words expand to exactly one field and are never split or globbed.
func (sh *Shell) ExpandWord(tok Token) ([]string, error) {
	text, err := sh.expandText(tok.Text)
	if err != nil {
		return nil, err
	}

	if tok.Quoted {
		return []string{Unescape(text)}, nil
	}

	var out []string
	for _, field := range splitFields(text) {
		if hasUnescapedGlob(field) {
			matches := sh.glob(field)
			if len(matches) > 0 {
				out = append(out, matches...)
				continue
			}
			// A pattern with no matches stays literal.
		}
		out = append(out, Unescape(field))
	}
	return out, nil
}

// expandWords expands a word sequence into an argv, splicing split and
// globbed fields in order.
func (sh *Shell) expandWords(tokens []Token) ([]string, error) {
	var argv []string
	for _, tok := range tokens {
		fields, err := sh.ExpandWord(tok)
		if err != nil {
			return nil, err
		}
		argv = append(argv, fields...)
	}
	return argv, nil
}

// expandAlias substitutes the leading command word through the alias
// table, re-tokenizing the replacement. Applied once, never
// recursively, and never to quoted words.
func (sh *Shell) expandAlias(tokens []Token) []Token {
	if len(tokens) == 0 || tokens[0].Kind != TokenWord || tokens[0].Quoted {
		return tokens
	}
	replacement, ok := sh.Aliases[Unescape(tokens[0].Text)]
	if !ok {
		return tokens
	}
	replTokens, err := Tokenize(replacement)
	if err != nil {
		return tokens
	}
	return append(replTokens, tokens[1:]...)
}

// expandText resolves $ expressions left to right in one pass.
// Substituted values are spliced in protected against further $
// expansion, so a value is never re-expanded.
func (sh *Shell) expandText(text string) (string, error) {
	var out strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\' && i+1 < len(runes):
			out.WriteRune(c)
			out.WriteRune(runes[i+1])
			i++

		case c == '$' && i+1 < len(runes) && runes[i+1] == '(':
			body, end, err := matchDelims(runes, i+1, '(', ')')
			if err != nil {
				return "", err
			}
			i = end

			if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
				value, err := sh.evalArith(body[1 : len(body)-1])
				if err != nil {
					return "", err
				}
				out.WriteString(protect(strconv.FormatInt(value, 10)))
				break
			}

			captured, err := sh.commandOutput(body)
			if err != nil {
				return "", err
			}
			out.WriteString(protect(strings.TrimSuffix(captured, "\n")))

		case c == '$' && i+1 < len(runes) && runes[i+1] == '{':
			body, end, err := matchDelims(runes, i+1, '{', '}')
			if err != nil {
				return "", err
			}
			i = end

			value, err := sh.expandBraceParam(body)
			if err != nil {
				return "", err
			}
			out.WriteString(protect(value))

		case c == '$' && i+1 < len(runes):
			name, width := scanParamName(runes[i+1:])
			if name == "" {
				out.WriteRune('$')
				break
			}
			value, _ := sh.lookupParam(name)
			out.WriteString(protect(value))
			i += width

		default:
			out.WriteRune(c)
		}
	}
	return out.String(), nil
}

// lookupParam resolves a parameter name: dynamic pseudo-variables
// first, then positional parameters, then the environment.
func (sh *Shell) lookupParam(name string) (string, bool) {
	args := sh.currentArgs()
	switch name {
	case "?":
		return strconv.Itoa(sh.lastExit), true
	case "$":
		return strconv.Itoa(sh.OS.Getpid()), true
	case "#":
		return strconv.Itoa(len(args) - 1), true
	case "@", "*":
		return strings.Join(args[1:], " "), true
	case "0":
		return args[0], true
	}

	if n, err := strconv.Atoi(name); err == nil && n > 0 {
		if n < len(args) {
			return args[n], true
		}
		return "", false
	}
	return sh.OS.LookupEnv(name)
}

// scanParamName reads the parameter name following a $: a single
// special character, a digit, or an identifier run. Returns the name
// and how many runes it spans.
func scanParamName(runes []rune) (string, int) {
	if len(runes) == 0 {
		return "", 0
	}
	if strings.ContainsRune("?$#@*", runes[0]) || unicode.IsDigit(runes[0]) {
		return string(runes[0]), 1
	}
	if !isNameStart(runes[0]) {
		return "", 0
	}
	end := 1
	for end < len(runes) && isNameRune(runes[end]) {
		end++
	}
	return string(runes[:end]), end
}

// expandBraceParam evaluates the body of a ${...} expression.
func (sh *Shell) expandBraceParam(body string) (string, error) {
	if body == "" {
		return "", &ExpansionError{Msg: "bad substitution: ${}"}
	}

	if strings.HasPrefix(body, "#") {
		value, _ := sh.lookupParam(body[1:])
		return strconv.Itoa(len(value)), nil
	}

	nameEnd := 0
	runes := []rune(body)
	if strings.ContainsRune("?$#@*", runes[0]) || unicode.IsDigit(runes[0]) {
		nameEnd = 1
	} else {
		for nameEnd < len(runes) && isNameRune(runes[nameEnd]) {
			nameEnd++
		}
	}
	if nameEnd == 0 {
		return "", &ExpansionError{Msg: fmt.Sprintf("bad substitution: ${%s}", body)}
	}

	name := string(runes[:nameEnd])
	rest := string(runes[nameEnd:])
	value, set := sh.lookupParam(name)

	if rest == "" {
		return value, nil
	}
	if len(rest) < 2 || rest[0] != ':' {
		return "", &ExpansionError{Msg: fmt.Sprintf("bad substitution: ${%s}", body)}
	}

	op, wordText := rest[1], rest[2:]
	word := func() (string, error) {
		expanded, err := sh.expandText(wordText)
		if err != nil {
			return "", err
		}
		return Unescape(expanded), nil
	}

	usable := set && value != ""
	switch op {
	case '-':
		if usable {
			return value, nil
		}
		return word()
	case '=':
		if usable {
			return value, nil
		}
		fallback, err := word()
		if err != nil {
			return "", err
		}
		sh.OS.Setenv(name, fallback)
		return fallback, nil
	case '?':
		if usable {
			return value, nil
		}
		message, err := word()
		if err != nil {
			return "", err
		}
		if message == "" {
			message = "parameter null or not set"
		}
		return "", &ExpansionError{Msg: fmt.Sprintf("%s: %s", name, message)}
	case '+':
		if usable {
			return word()
		}
		return "", nil
	}
	return "", &ExpansionError{Msg: fmt.Sprintf("bad substitution: ${%s}", body)}
}

// commandOutput runs text in a capturing subshell and returns its
// standard output. Depth is bounded to stop runaway self-substitution.
func (sh *Shell) commandOutput(text string) (string, error) {
	if sh.substDepth >= maxSubstitutionDepth {
		return "", &ExpansionError{Msg: "command substitution nested too deeply"}
	}

	buf := &bytes.Buffer{}
	wd, _ := sh.OS.Getwd()
	proc := sh.kernel.Spawn(func(os vos.VOS) int {
		sub := sh.subshellFor(os.(*vos.ProcOS))
		sub.substDepth = sh.substDepth + 1
		return sub.Execute(text)
	}, "subshell", []string{"subshell"}, &vos.ProcAttr{
		Dir:   wd,
		Env:   sh.OS.Environ(),
		Files: vos.NewVIOAdapter(nil, buf, sh.OS.Stderr()),
		UID:   sh.OS.Getuid(),
	})
	proc.Run()
	return buf.String(), nil
}

// matchDelims returns the content between a balanced open/close pair
// starting at runes[start], plus the index of the closing delimiter.
func matchDelims(runes []rune, start int, open, close rune) (string, int, error) {
	depth := 0
	for i := start; i < len(runes); i++ {
		switch runes[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return string(runes[start+1 : i]), i, nil
			}
		}
	}
	return "", 0, &SyntaxError{Msg: fmt.Sprintf("unbalanced %c", open)}
}

// protect escapes backslashes and dollars so a substituted value is
// inert for the remainder of the expansion pass.
func protect(s string) string {
	return strings.NewReplacer(`\`, `\\`, `$`, `\$`).Replace(s)
}

// splitFields splits expanded unquoted text on unescaped whitespace.
// Empty fields vanish, so an unset variable contributes no argument.
func splitFields(text string) []string {
	var fields []string
	var buf strings.Builder
	runes := []rune(text)

	flush := func() {
		if buf.Len() > 0 {
			fields = append(fields, buf.String())
			buf.Reset()
		}
	}
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '\\' && i+1 < len(runes):
			buf.WriteRune(runes[i])
			buf.WriteRune(runes[i+1])
			i++
		case unicode.IsSpace(runes[i]):
			flush()
		default:
			buf.WriteRune(runes[i])
		}
	}
	flush()
	return fields
}

func hasUnescapedGlob(text string) bool {
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' {
			i++
			continue
		}
		if strings.ContainsRune("*?[", runes[i]) {
			return true
		}
	}
	return false
}

// glob matches a pattern against the directory listing it names,
// returning sorted paths. Wildcards apply to the final path component
// only; no matches returns nil so the caller keeps the literal.
func (sh *Shell) glob(pattern string) []string {
	dirPart, base := path.Split(pattern)
	lookupDir := Unescape(dirPart)
	if lookupDir == "" {
		lookupDir = "."
	}

	f, err := sh.OS.Open(lookupDir)
	if err != nil {
		return nil
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return nil
	}
	sort.Strings(names)

	hidden := strings.HasPrefix(Unescape(base), ".")
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !hidden {
			continue
		}
		ok, err := path.Match(base, name)
		if err != nil {
			return nil
		}
		if ok {
			matches = append(matches, Unescape(dirPart)+name)
		}
	}
	return matches
}
