package shell

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptForLoop(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("for i in 1 2 3; do echo $i; done")
	assert.Equal(t, "1\n2\n3\n", stdout.String())
}

func TestScriptForLoopVariableStaysBound(t *testing.T) {
	sh, _, _ := newTestShell(t)

	sh.Execute("for i in a b c; do true; done")
	assert.Equal(t, "c", sh.OS.Getenv("i"))
}

func TestScriptForLoopExpandsList(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.OS.Setenv("ITEMS", "x y")

	sh.Execute("for v in $ITEMS z; do echo $v; done")
	assert.Equal(t, "x\ny\nz\n", stdout.String())
}

func TestScriptMultiLineForLoop(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	code := sh.RunScript(strings.NewReader(`
for name in alpha beta
do
  echo hello $name
done
`))
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello alpha\nhello beta\n", stdout.String())
}

func TestScriptWhileLoop(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("i=1; while test $i -le 3; do echo $i; i=$((i+1)); done")
	assert.Equal(t, "1\n2\n3\n", stdout.String())
}

func TestScriptWhileFalseNeverRuns(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	code := sh.Execute("while false; do echo never; done")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}

func TestScriptIfThenElse(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("if test $USER = admin; then echo yes; else echo no; fi")
	assert.Equal(t, "yes\n", stdout.String())

	stdout.Reset()
	sh.Execute("if test $USER = other; then echo yes; else echo no; fi")
	assert.Equal(t, "no\n", stdout.String())
}

func TestScriptIfElif(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.OS.Setenv("LEVEL", "2")

	script := `
if test $LEVEL -eq 1; then
  echo one
elif test $LEVEL -eq 2; then
  echo two
else
  echo other
fi
`
	sh.RunScript(strings.NewReader(script))
	assert.Equal(t, "two\n", stdout.String())
}

func TestScriptIfWithoutElseFalseCondition(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	code := sh.Execute("if false; then echo hidden; fi")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}

func TestScriptCase(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	script := `
case warning in
  err*) echo E;;
  warn*) echo W;;
  *) echo other;;
esac
`
	sh.RunScript(strings.NewReader(script))
	assert.Equal(t, "W\n", stdout.String())
}

func TestScriptCaseSingleLine(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	code := sh.Execute("case warn in warn*) echo W;; *) echo U;; esac")
	assert.Equal(t, 0, code)
	assert.Equal(t, "W\n", stdout.String())
}

func TestScriptCaseFirstMatchWins(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("case abc in a*) echo first;; ab*) echo second;; esac")
	assert.Equal(t, "first\n", stdout.String())
}

func TestScriptCaseAlternatives(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("case no in yes|no) echo answer;; *) echo free;; esac")
	assert.Equal(t, "answer\n", stdout.String())
}

func TestScriptCaseNoMatch(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	code := sh.Execute("case zebra in a) echo a;; b) echo b;; esac")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}

func TestScriptCaseExpandsSubject(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.OS.Setenv("MODE", "fast")

	sh.Execute("case $MODE in fast) echo F;; slow) echo S;; esac")
	assert.Equal(t, "F\n", stdout.String())
}

func TestScriptFunctionDefinitionAndCall(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	script := `
greet() {
  echo hello $1
}
greet world
greet again
`
	sh.RunScript(strings.NewReader(script))
	assert.Equal(t, "hello world\nhello again\n", stdout.String())
}

func TestScriptFunctionSingleLine(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("twice() { echo $1; echo $1; }")
	sh.Execute("twice x")
	assert.Equal(t, "x\nx\n", stdout.String())
}

func TestScriptFunctionPositionalScope(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.SetArgs("outer.sh", []string{"script-arg"})

	sh.Execute("show() { echo $0 $1 $#; }")
	sh.Execute("show fn-arg")
	// Inside the call $0 is the function name and $1 its argument.
	assert.Equal(t, "show fn-arg 1\n", stdout.String())

	stdout.Reset()
	sh.Execute("echo $0 $1")
	assert.Equal(t, "outer.sh script-arg\n", stdout.String())
}

func TestScriptFunctionReturn(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("check() { return 3; echo unreachable; }")
	code := sh.Execute("check")
	assert.Equal(t, 3, code)
	assert.Empty(t, stdout.String())
	assert.Equal(t, 3, sh.LastExit())
}

func TestScriptFunctionShadowsCommand(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("echo() { args shadowed; }")
	sh.Execute("echo anything")
	assert.Equal(t, "shadowed\n", stdout.String())
}

func TestScriptNestedBlocks(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	script := `
for i in 1 2
do
  if test $i -eq 2
  then
    echo big $i
  else
    echo small $i
  fi
done
`
	sh.RunScript(strings.NewReader(script))
	assert.Equal(t, "small 1\nbig 2\n", stdout.String())
}

func TestScriptWhileReadsFromLoopBody(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	script := `
n=0
while test $n -lt 2
do
  n=$((n+1))
  echo pass $n
done
echo done $n
`
	sh.RunScript(strings.NewReader(script))
	assert.Equal(t, "pass 1\npass 2\ndone 2\n", stdout.String())
}

func TestScriptUnterminatedBlockIsSyntaxError(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("if true; then echo x")
	assert.Equal(t, ExitSyntax, code)
	assert.Contains(t, stderr.String(), "syntax error")
}

func TestScriptStrayCloserIsSyntaxError(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("done")
	assert.Equal(t, ExitSyntax, code)
	assert.Contains(t, stderr.String(), "unexpected")
}

func TestScriptReturnOutsideFunction(t *testing.T) {
	sh, _, stderr := newTestShell(t)

	code := sh.Execute("return 5")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "return")
}

func TestScriptExitInsideLoopStops(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("for i in 1 2 3; do echo $i; exit 9; done")
	quit, code := sh.Quit()
	assert.True(t, quit)
	assert.Equal(t, 9, code)
	assert.Equal(t, "1\n", stdout.String())
}

func TestScriptSourcedFileRunsInSession(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	rc := "SOURCED=yes\nalias hi='echo hi there'\necho loaded\n"
	require.NoError(t, afero.WriteFile(sh.OS, "/rc", []byte(rc), 0644))

	code := sh.Execute(". /rc")
	assert.Equal(t, 0, code)
	assert.Equal(t, "loaded\n", stdout.String())

	// Sourcing mutates the current session, not a subshell.
	assert.Equal(t, "yes", sh.OS.Getenv("SOURCED"))
	assert.Equal(t, "echo hi there", sh.Aliases["hi"])
}
