package shell

import "fmt"

// SyntaxError reports a malformed line: unbalanced quotes, a dangling
// operator or an unterminated block. It aborts the offending line only.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

// ExpansionError reports a failed expansion, e.g. an unset variable
// referenced through ${v:?message}. The command exits 1.
type ExpansionError struct {
	Msg string
}

func (e *ExpansionError) Error() string {
	return e.Msg
}

// ArithmeticError reports a failed $((...)) evaluation.
type ArithmeticError struct {
	Msg string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error: %s", e.Msg)
}

// RedirectionError reports an unopenable redirection target. The
// affected pipeline is abandoned, the session continues.
type RedirectionError struct {
	Target string
	Msg    string
}

func (e *RedirectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Target, e.Msg)
}

// JobError reports an operation on an unknown or unusable job spec.
type JobError struct {
	Spec string
	Msg  string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Spec, e.Msg)
}

// Exit codes for error classes the shell reports itself.
const (
	ExitSuccess  = 0
	ExitFailure  = 1
	ExitSyntax   = 2
	ExitNotFound = 127
)
