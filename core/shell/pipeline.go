package shell

import (
	"strings"
)

// RedirKind is the direction and mode of one redirection.
type RedirKind int

const (
	RedirIn RedirKind = iota
	RedirOut
	RedirOutAppend
	RedirErr
	RedirErrAppend
	RedirBoth
	RedirBothAppend
	RedirHereDoc
)

var redirOps = map[string]RedirKind{
	"<":   RedirIn,
	">":   RedirOut,
	">>":  RedirOutAppend,
	"2>":  RedirErr,
	"2>>": RedirErrAppend,
	"&>":  RedirBoth,
	"&>>": RedirBothAppend,
	"<<":  RedirHereDoc,
}

// Redirection attaches a stream target to the command it trails. The
// target stays an unexpanded token until launch.
type Redirection struct {
	Kind   RedirKind
	Target Token
}

// HereDoc is the inline input of a pipeline: the gathered body and
// whether $ expansion applies (it does not when the delimiter was
// quoted). It always feeds the first stage's stdin.
type HereDoc struct {
	Body   string
	Expand bool
}

// ParsedCommand is one pipeline stage before expansion.
type ParsedCommand struct {
	Words  []Token
	Redirs []Redirection
}

// Pipeline is a chain of commands connected by pipes. At most one
// here-document may appear in a pipeline.
type Pipeline struct {
	Commands []*ParsedCommand
	HereDoc  *HereDoc
}

// ChainLink is one pipeline in a boolean chain. Op is "" for the
// first link, then "&&" or "||".
type ChainLink struct {
	Op   string
	Pipe *Pipeline
}

// Statement is one complete executable unit: a left-associative
// boolean chain of pipelines, optionally backgrounded as a whole.
type Statement struct {
	Chain      []ChainLink
	Background bool
	Text       string
}

// ParseStatements builds statements from a token stream. A mid-line &
// backgrounds everything before it and starts a fresh statement, and ;
// separates statements. Here-document bodies are pulled from src.
func ParseStatements(tokens []Token, src LineSource) ([]*Statement, error) {
	var statements []*Statement

	var (
		stmt     = &Statement{}
		pipe     = &Pipeline{}
		cmd      = &ParsedCommand{}
		chainOp  = ""
		consumed []Token
	)

	closeCommand := func() error {
		if len(cmd.Words) == 0 && len(cmd.Redirs) == 0 {
			return &SyntaxError{Msg: "missing command"}
		}
		pipe.Commands = append(pipe.Commands, cmd)
		cmd = &ParsedCommand{}
		return nil
	}
	closePipeline := func() error {
		if err := closeCommand(); err != nil {
			return err
		}
		stmt.Chain = append(stmt.Chain, ChainLink{Op: chainOp, Pipe: pipe})
		pipe = &Pipeline{}
		return nil
	}
	closeStatement := func(background bool) error {
		if err := closePipeline(); err != nil {
			return err
		}
		stmt.Background = background
		stmt.Text = tokensText(consumed)
		statements = append(statements, stmt)
		stmt = &Statement{}
		chainOp = ""
		consumed = nil
		return nil
	}
	empty := func() bool {
		return len(cmd.Words) == 0 && len(cmd.Redirs) == 0 &&
			len(pipe.Commands) == 0 && len(stmt.Chain) == 0
	}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == TokenWord {
			cmd.Words = append(cmd.Words, tok)
			consumed = append(consumed, tok)
			i++
			continue
		}

		switch tok.Text {
		case "|":
			consumed = append(consumed, tok)
			if err := closeCommand(); err != nil {
				return nil, err
			}
			i++

		case "&&", "||":
			consumed = append(consumed, tok)
			if err := closePipeline(); err != nil {
				return nil, err
			}
			chainOp = tok.Text
			i++

		case "&":
			if err := closeStatement(true); err != nil {
				return nil, err
			}
			i++

		case ";":
			if empty() {
				i++
				continue
			}
			if err := closeStatement(false); err != nil {
				return nil, err
			}
			i++

		case ";;":
			return nil, &SyntaxError{Msg: "unexpected ;;"}

		default:
			kind, ok := redirOps[tok.Text]
			if !ok {
				return nil, &SyntaxError{Msg: "unexpected operator " + tok.Text}
			}
			if i+1 >= len(tokens) || tokens[i+1].Kind != TokenWord {
				return nil, &SyntaxError{Msg: "missing redirection target after " + tok.Text}
			}
			target := tokens[i+1]
			consumed = append(consumed, tok, target)

			if kind == RedirHereDoc {
				if pipe.HereDoc != nil {
					return nil, &SyntaxError{Msg: "multiple here-documents in one pipeline"}
				}
				body := readHereDoc(src, Unescape(target.Text))
				pipe.HereDoc = &HereDoc{Body: body, Expand: !target.Quoted}
			} else {
				cmd.Redirs = append(cmd.Redirs, Redirection{Kind: kind, Target: target})
			}
			i += 2
		}
	}

	if empty() && chainOp == "" {
		return statements, nil
	}
	if chainOp != "" && len(cmd.Words) == 0 && len(cmd.Redirs) == 0 && len(pipe.Commands) == 0 {
		return nil, &SyntaxError{Msg: "missing command after " + chainOp}
	}
	if len(pipe.Commands) > 0 && len(cmd.Words) == 0 && len(cmd.Redirs) == 0 {
		return nil, &SyntaxError{Msg: "missing command after |"}
	}
	if err := closeStatement(false); err != nil {
		return nil, err
	}
	return statements, nil
}

// readHereDoc gathers physical lines until one equals the delimiter.
// End of input closes the document like the delimiter would.
func readHereDoc(src LineSource, delim string) string {
	if src == nil {
		return ""
	}
	var body strings.Builder
	for {
		line, err := src.ReadLine("> ")
		if err != nil || line == delim {
			return body.String()
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
}

// tokensText rebuilds a printable command text for job listings.
func tokensText(tokens []Token) string {
	var parts []string
	for _, tok := range tokens {
		if tok.Kind == TokenOp {
			parts = append(parts, tok.Text)
		} else {
			parts = append(parts, Unescape(tok.Text))
		}
	}
	return strings.Join(parts, " ")
}
