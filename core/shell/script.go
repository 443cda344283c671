package shell

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// node is one executable unit of a parsed block: a plain statement or
// a control-flow construct.
type node interface {
	exec(sh *Shell, src LineSource) int
}

// functionDef is a registered shell function.
type functionDef struct {
	name string
	body []node
}

// executeWith is the interpreter main loop: collect one node at a
// time and execute it. Top-level statements come from primary only;
// cont supplies continuation lines once a block or here-document is
// open, so an interactive block can span prompts without the loop
// swallowing unrelated input. Parse errors abort only the offending
// block.
func (sh *Shell) executeWith(primary, cont LineSource) int {
	p := &blockParser{sh: sh, primary: primary, cont: cont}
	src := rawSource{p}
	for !sh.quit && !sh.returning {
		stmt, err := p.next(false)
		if err != nil {
			break
		}

		parsed, err := p.parseNode(stmt)
		if err != nil {
			sh.reportError("syntax", err)
			sh.lastExit = ExitSyntax
			continue
		}
		parsed.exec(sh, src)
	}
	return sh.lastExit
}

// callFunction invokes a user-defined function with its own scope
// frame. argv[0] is the function name.
func (sh *Shell) callFunction(def *functionDef, argv []string) int {
	sh.pushFrame(argv)
	defer sh.popFrame()

	code := execBody(sh, def.body, nil)
	if sh.returning {
		sh.returning = false
		code = sh.lastExit
	}
	sh.lastExit = code
	return code
}

// execBody runs a block body, honoring exit and return requests.
func execBody(sh *Shell, body []node, src LineSource) int {
	code := 0
	for _, n := range body {
		code = n.exec(sh, src)
		if sh.quit || sh.returning {
			break
		}
	}
	return code
}

// blockParser turns statements into nodes, pulling continuation lines
// while a block is open.
type blockParser struct {
	sh          *Shell
	primary     LineSource
	cont        LineSource
	queue       []string
	primaryDone bool
}

// next pops the next pending statement, reading and splitting more
// lines as needed. Only open blocks may read past the primary source.
func (p *blockParser) next(inBlock bool) (string, error) {
	for len(p.queue) == 0 {
		var src LineSource
		switch {
		case !p.primaryDone:
			src = p.primary
		case inBlock && p.cont != nil:
			src = p.cont
		default:
			return "", io.EOF
		}

		line, err := readLogicalLine(src, "", p.sh.ContinuationPrompt())
		if err != nil {
			if !p.primaryDone {
				p.primaryDone = true
				continue
			}
			return "", io.EOF
		}
		p.queue = append(p.queue, splitStatements(line)...)
	}
	stmt := p.queue[0]
	p.queue = p.queue[1:]
	return stmt, nil
}

// rawSource reads physical lines for here-document bodies, after the
// already queued statements' line.
type rawSource struct {
	p *blockParser
}

func (r rawSource) ReadLine(prompt string) (string, error) {
	if !r.p.primaryDone {
		line, err := r.p.primary.ReadLine(prompt)
		if err == nil {
			return line, nil
		}
		r.p.primaryDone = true
	}
	if r.p.cont != nil {
		return r.p.cont.ReadLine(prompt)
	}
	return "", io.EOF
}

var functionDefPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\(\)\s*(.*)$`)

// parseNode classifies one statement: an opener starts block
// collection, anything else is a plain command line.
func (p *blockParser) parseNode(stmt string) (node, error) {
	keyword, rest := splitKeyword(stmt)
	switch keyword {
	case "if":
		return p.parseIf(rest)
	case "while":
		return p.parseWhile(rest)
	case "for":
		return p.parseFor(rest)
	case "case":
		return p.parseCase(rest)
	case "then", "elif", "else", "fi", "do", "done", "esac", ";;", "}":
		return nil, &SyntaxError{Msg: fmt.Sprintf("unexpected %q", keyword)}
	}

	if m := functionDefPattern.FindStringSubmatch(stmt); m != nil {
		return p.parseFunction(m[1], strings.TrimSpace(m[2]))
	}
	return &lineNode{text: stmt}, nil
}

// expectKeyword consumes the next statement, which must be exactly
// the given keyword.
func (p *blockParser) expectKeyword(want string) error {
	stmt, err := p.next(true)
	if err != nil {
		return &SyntaxError{Msg: fmt.Sprintf("unexpected end of input, expected %q", want)}
	}
	if strings.TrimSpace(stmt) != want {
		return &SyntaxError{Msg: fmt.Sprintf("expected %q near %q", want, stmt)}
	}
	return nil
}

// collect parses body nodes until a statement opens with one of the
// given closer keywords, returning that closing statement.
func (p *blockParser) collect(closers ...string) ([]node, string, error) {
	var body []node
	for {
		stmt, err := p.next(true)
		if err != nil {
			return nil, "", &SyntaxError{Msg: fmt.Sprintf("unexpected end of input, expected %q", closers[len(closers)-1])}
		}
		keyword, _ := splitKeyword(stmt)
		for _, closer := range closers {
			if keyword == closer {
				return body, stmt, nil
			}
		}
		parsed, err := p.parseNode(stmt)
		if err != nil {
			return nil, "", err
		}
		body = append(body, parsed)
	}
}

type condArm struct {
	cond string
	body []node
}

type ifNode struct {
	arms     []condArm
	elseBody []node
}

func (p *blockParser) parseIf(cond string) (node, error) {
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}

	out := &ifNode{}
	for {
		body, closer, err := p.collect("elif", "else", "fi")
		if err != nil {
			return nil, err
		}
		out.arms = append(out.arms, condArm{cond: cond, body: body})

		keyword, rest := splitKeyword(closer)
		switch keyword {
		case "fi":
			return out, nil
		case "elif":
			cond = rest
			if err := p.expectKeyword("then"); err != nil {
				return nil, err
			}
		case "else":
			elseBody, _, err := p.collect("fi")
			if err != nil {
				return nil, err
			}
			out.elseBody = elseBody
			return out, nil
		}
	}
}

func (n *ifNode) exec(sh *Shell, src LineSource) int {
	for _, arm := range n.arms {
		if sh.runStatementText(arm.cond, src) == 0 {
			code := execBody(sh, arm.body, src)
			sh.lastExit = code
			return code
		}
		if sh.quit || sh.returning {
			return sh.lastExit
		}
	}
	if n.elseBody != nil {
		code := execBody(sh, n.elseBody, src)
		sh.lastExit = code
		return code
	}
	sh.lastExit = 0
	return 0
}

type whileNode struct {
	cond string
	body []node
}

func (p *blockParser) parseWhile(cond string) (node, error) {
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, _, err := p.collect("done")
	if err != nil {
		return nil, err
	}
	return &whileNode{cond: cond, body: body}, nil
}

func (n *whileNode) exec(sh *Shell, src LineSource) int {
	code := 0
	for sh.runStatementText(n.cond, src) == 0 {
		if sh.quit || sh.returning {
			break
		}
		code = execBody(sh, n.body, src)
		if sh.quit || sh.returning {
			break
		}
	}
	sh.lastExit = code
	return code
}

type forNode struct {
	varName  string
	listText string
	body     []node
}

func (p *blockParser) parseFor(rest string) (node, error) {
	fields := strings.Fields(rest)
	if len(fields) < 2 || fields[1] != "in" || !isName(fields[0]) {
		return nil, &SyntaxError{Msg: fmt.Sprintf("bad for loop header %q", rest)}
	}
	listText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), fields[0]))
	listText = strings.TrimSpace(strings.TrimPrefix(listText, "in"))

	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, _, err := p.collect("done")
	if err != nil {
		return nil, err
	}
	return &forNode{varName: fields[0], listText: listText, body: body}, nil
}

func (n *forNode) exec(sh *Shell, src LineSource) int {
	tokens, err := Tokenize(n.listText)
	if err != nil {
		sh.reportError("syntax", err)
		sh.lastExit = ExitSyntax
		return sh.lastExit
	}
	values, err := sh.expandWords(tokens)
	if err != nil {
		sh.expansionFailed(err)
		return sh.lastExit
	}

	code := 0
	for _, value := range values {
		// The loop variable stays bound after the loop completes.
		sh.OS.Setenv(n.varName, value)
		code = execBody(sh, n.body, src)
		if sh.quit || sh.returning {
			break
		}
	}
	sh.lastExit = code
	return code
}

type caseArm struct {
	patterns []string
	body     []node
}

type caseNode struct {
	subject string
	arms    []caseArm
}

func (p *blockParser) parseCase(rest string) (node, error) {
	subject, after := splitKeyword(rest)
	keyword, tail := splitKeyword(after)
	if subject == "" || keyword != "in" {
		return nil, &SyntaxError{Msg: fmt.Sprintf("bad case header %q", rest)}
	}
	if tail != "" {
		// One-line form: the first arm follows "in" on the same line.
		p.queue = append([]string{tail}, p.queue...)
	}

	out := &caseNode{subject: subject}
	for {
		stmt, err := p.next(true)
		if err != nil {
			return nil, &SyntaxError{Msg: `unexpected end of input, expected "esac"`}
		}
		if strings.TrimSpace(stmt) == "esac" {
			return out, nil
		}

		pattern, remainder, err := splitCaseArm(stmt)
		if err != nil {
			return nil, err
		}
		arm := caseArm{patterns: splitPatterns(pattern)}
		if remainder != "" {
			parsed, err := p.parseNode(remainder)
			if err != nil {
				return nil, err
			}
			arm.body = append(arm.body, parsed)
		}

		closed := false
		for !closed {
			stmt, err := p.next(true)
			if err != nil {
				return nil, &SyntaxError{Msg: `unexpected end of input, expected ";;"`}
			}
			trimmed := strings.TrimSpace(stmt)
			switch trimmed {
			case ";;":
				closed = true
			case "esac":
				out.arms = append(out.arms, arm)
				return out, nil
			default:
				parsed, err := p.parseNode(stmt)
				if err != nil {
					return nil, err
				}
				arm.body = append(arm.body, parsed)
			}
		}
		out.arms = append(out.arms, arm)
	}
}

func (n *caseNode) exec(sh *Shell, src LineSource) int {
	tokens, err := Tokenize(n.subject)
	if err != nil || len(tokens) == 0 {
		sh.lastExit = ExitSyntax
		return sh.lastExit
	}
	fields, err := sh.ExpandWord(tokens[0])
	if err != nil {
		sh.expansionFailed(err)
		return sh.lastExit
	}
	subject := strings.Join(fields, " ")

	for _, arm := range n.arms {
		for _, pattern := range arm.patterns {
			if !matchCasePattern(sh, pattern, subject) {
				continue
			}
			code := execBody(sh, arm.body, src)
			sh.lastExit = code
			return code
		}
	}
	sh.lastExit = 0
	return 0
}

// matchCasePattern glob-matches one case pattern against the expanded
// subject. Patterns go through $ expansion but never globbing.
func matchCasePattern(sh *Shell, pattern, subject string) bool {
	tokens, err := Tokenize(pattern)
	if err != nil || len(tokens) == 0 {
		return false
	}
	expanded, err := sh.expandText(tokens[0].Text)
	if err != nil {
		return false
	}
	ok, err := path.Match(expanded, subject)
	return err == nil && ok
}

type funcDefNode struct {
	def *functionDef
}

func (p *blockParser) parseFunction(name, rest string) (node, error) {
	if !strings.HasPrefix(rest, "{") {
		if rest != "" {
			return nil, &SyntaxError{Msg: fmt.Sprintf("expected { in definition of %s", name)}
		}
		if err := p.expectKeyword("{"); err != nil {
			return nil, err
		}
	} else {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "{"))
	}

	def := &functionDef{name: name}
	if rest != "" {
		parsed, err := p.parseNode(rest)
		if err != nil {
			return nil, err
		}
		def.body = append(def.body, parsed)
	}

	body, _, err := p.collect("}")
	if err != nil {
		return nil, err
	}
	def.body = append(def.body, body...)
	return &funcDefNode{def: def}, nil
}

func (n *funcDefNode) exec(sh *Shell, src LineSource) int {
	sh.funcs[n.def.name] = n.def
	sh.lastExit = 0
	return 0
}

type lineNode struct {
	text string
}

func (n *lineNode) exec(sh *Shell, src LineSource) int {
	return sh.runStatementText(n.text, src)
}

// splitKeyword returns a statement's first field and the remainder.
func splitKeyword(stmt string) (string, string) {
	trimmed := strings.TrimSpace(stmt)
	if trimmed == "" {
		return "", ""
	}
	idx := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], strings.TrimSpace(trimmed[idx:])
}

// splitCaseArm separates "pattern) commands" at the first unquoted
// closing parenthesis.
func splitCaseArm(stmt string) (pattern, remainder string, err error) {
	runes := []rune(stmt)
	idx := indexUnquoted(stmt, ')')
	if idx < 0 {
		return "", "", &SyntaxError{Msg: fmt.Sprintf("expected pattern) near %q", stmt)}
	}
	pattern = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(runes[:idx])), "("))
	remainder = strings.TrimSpace(string(runes[idx+1:]))
	return pattern, remainder, nil
}

func splitPatterns(pattern string) []string {
	var out []string
	for _, p := range strings.Split(pattern, "|") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isNameStart(r) {
			return false
		}
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

// splitStatements breaks a logical line into statements on unquoted
// semicolons, keeps ;; intact for case arms, and peels leading block
// keywords (do, then, else) into their own statements.
func splitStatements(line string) []string {
	var raw []string
	var buf strings.Builder

	flush := func() {
		if trimmed := strings.TrimSpace(buf.String()); trimmed != "" {
			raw = append(raw, trimmed)
		}
		buf.Reset()
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '\\':
			buf.WriteRune(c)
			if i+1 < len(runes) {
				buf.WriteRune(runes[i+1])
				i++
			}
		case '\'', '"':
			quote := c
			buf.WriteRune(c)
			for i++; i < len(runes); i++ {
				buf.WriteRune(runes[i])
				if runes[i] == '\\' && quote == '"' && i+1 < len(runes) {
					i++
					buf.WriteRune(runes[i])
					continue
				}
				if runes[i] == quote {
					break
				}
			}
		case '$':
			buf.WriteRune(c)
			if i+1 < len(runes) && (runes[i+1] == '(' || runes[i+1] == '{') {
				open, close := runes[i+1], ')'
				if open == '{' {
					close = '}'
				}
				depth := 0
				for i++; i < len(runes); i++ {
					buf.WriteRune(runes[i])
					if runes[i] == open {
						depth++
					} else if runes[i] == close {
						depth--
						if depth == 0 {
							break
						}
					}
				}
			}
		case ';':
			if i+1 < len(runes) && runes[i+1] == ';' {
				flush()
				raw = append(raw, ";;")
				i++
			} else {
				flush()
			}
		default:
			buf.WriteRune(c)
		}
	}
	flush()

	var out []string
	for _, stmt := range raw {
		out = append(out, peelKeywords(stmt)...)
	}
	return out
}

// peelKeywords splits "do echo x" style statements so block collection
// sees the keyword alone.
func peelKeywords(stmt string) []string {
	keyword, rest := splitKeyword(stmt)
	switch keyword {
	case "do", "then", "else":
		if rest == "" {
			return []string{keyword}
		}
		return append([]string{keyword}, peelKeywords(rest)...)
	}
	return []string{stmt}
}

// indexUnquoted finds the first occurrence of target outside quotes
// and escapes, or -1.
func indexUnquoted(s string, target rune) int {
	runes := []rune(s)
	var quote rune
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == target:
			return i
		}
	}
	return -1
}
