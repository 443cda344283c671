package shell

import (
	"bufio"
	"io"
	"path"
	"strings"
)

// LineSource supplies physical lines to the interpreter. Interactive
// implementations show the prompt; batch ones ignore it. io.EOF ends
// the session.
type LineSource interface {
	ReadLine(prompt string) (string, error)
}

// NewReaderSource reads physical lines from r, e.g. a script file.
func NewReaderSource(r io.Reader) LineSource {
	return &readerSource{scanner: bufio.NewScanner(r)}
}

type readerSource struct {
	scanner *bufio.Scanner
}

func (s *readerSource) ReadLine(string) (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// NewStringSource serves the given text line by line, then EOF.
func NewStringSource(text string) LineSource {
	return &stringSource{lines: strings.Split(text, "\n")}
}

type stringSource struct {
	lines []string
}

func (s *stringSource) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// readLogicalLine assembles one logical line, joining physical lines
// that end in an unquoted backslash. Continuations use prompt2.
func readLogicalLine(src LineSource, prompt, prompt2 string) (string, error) {
	line, err := src.ReadLine(prompt)
	if err != nil {
		return "", err
	}
	for endsWithLineJoin(line) {
		line = line[:len(line)-1]
		next, err := src.ReadLine(prompt2)
		if err != nil {
			return line, nil
		}
		line += next
	}
	return line, nil
}

// endsWithLineJoin reports a trailing backslash that is itself
// unescaped, so `\\` at end of line does not join.
func endsWithLineJoin(line string) bool {
	trailing := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		trailing++
	}
	return trailing%2 == 1
}

// Prompt renders PS1, falling back to the default prompt.
func (sh *Shell) Prompt() string {
	ps := sh.OS.Getenv(EnvPrompt)
	if ps == "" {
		ps = DefaultPrompt
	}
	return sh.renderPrompt(ps)
}

// ContinuationPrompt renders PS2 for multi-line input.
func (sh *Shell) ContinuationPrompt() string {
	ps := sh.OS.Getenv(EnvPrompt2)
	if ps == "" {
		ps = DefaultPrompt2
	}
	return sh.renderPrompt(ps)
}

// renderPrompt substitutes the bash-style prompt escapes the original
// login shells show: \u \h \H \w \W \$ \t \d \n \\.
func (sh *Shell) renderPrompt(template string) string {
	hostname, _ := sh.OS.Hostname()
	shortHost := hostname
	if dot := strings.IndexByte(shortHost, '.'); dot > 0 {
		shortHost = shortHost[:dot]
	}

	wd, err := sh.OS.Getwd()
	if err != nil {
		wd = "/"
	}
	home := sh.OS.Getenv(EnvHome)
	tilde := wd
	if home != "" {
		if wd == home {
			tilde = "~"
		} else if strings.HasPrefix(wd, home+"/") {
			tilde = "~" + wd[len(home):]
		}
	}

	dollar := "$"
	if sh.OS.Getuid() == 0 {
		dollar = "#"
	}

	var out strings.Builder
	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			out.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'u':
			out.WriteString(sh.OS.Getenv(EnvUser))
		case 'h':
			out.WriteString(shortHost)
		case 'H':
			out.WriteString(hostname)
		case 'w':
			out.WriteString(tilde)
		case 'W':
			out.WriteString(path.Base(wd))
		case '$':
			out.WriteString(dollar)
		case 't':
			out.WriteString(sh.OS.Now().Format("15:04:05"))
		case 'd':
			out.WriteString(sh.OS.Now().Format("Mon Jan 02"))
		case 'n':
			out.WriteString("\n")
		case '\\':
			out.WriteString(`\`)
		default:
			out.WriteRune('\\')
			out.WriteRune(runes[i])
		}
	}
	return out.String()
}
