package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expandOne tokenizes a single word and expands it.
func expandOne(t *testing.T, sh *Shell, word string) []string {
	t.Helper()
	tokens, err := Tokenize(word)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	fields, err := sh.ExpandWord(tokens[0])
	require.NoError(t, err)
	return fields
}

func TestExpandVariable(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("NAME", "value")

	assert.Equal(t, []string{"value"}, expandOne(t, sh, "$NAME"))
	assert.Equal(t, []string{"value"}, expandOne(t, sh, "${NAME}"))
	assert.Equal(t, []string{"pre-value-post"}, expandOne(t, sh, "pre-${NAME}-post"))
}

func TestExpandUnsetVariableVanishes(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	// An unset unquoted variable contributes no field at all.
	sh.Execute("args a $UNSET b")
	assert.Equal(t, "a\nb\n", stdout.String())
}

func TestExpandQuotedUnsetKeepsEmptyField(t *testing.T) {
	sh, _, _ := newTestShell(t)

	tokens, err := Tokenize(`"$UNSET"`)
	require.NoError(t, err)
	fields, err := sh.ExpandWord(tokens[0])
	require.NoError(t, err)
	assert.Equal(t, []string{""}, fields)
}

func TestExpandDefaultValue(t *testing.T) {
	sh, _, _ := newTestShell(t)

	assert.Equal(t, []string{"fallback"}, expandOne(t, sh, "${MISSING:-fallback}"))

	sh.OS.Setenv("PRESENT", "real")
	assert.Equal(t, []string{"real"}, expandOne(t, sh, "${PRESENT:-fallback}"))

	// :- does not set the variable.
	_, ok := sh.OS.LookupEnv("MISSING")
	assert.False(t, ok)
}

func TestExpandAssignDefault(t *testing.T) {
	sh, _, _ := newTestShell(t)

	assert.Equal(t, []string{"seeded"}, expandOne(t, sh, "${LAZY:=seeded}"))
	assert.Equal(t, "seeded", sh.OS.Getenv("LAZY"))
}

func TestExpandErrorIfUnset(t *testing.T) {
	sh, _, _ := newTestShell(t)

	tokens, err := Tokenize("${REQUIRED:?must be set}")
	require.NoError(t, err)
	_, err = sh.ExpandWord(tokens[0])
	var expErr *ExpansionError
	require.ErrorAs(t, err, &expErr)
	assert.Contains(t, expErr.Error(), "must be set")
}

func TestExpandAlternateValue(t *testing.T) {
	sh, _, _ := newTestShell(t)

	assert.Equal(t, []string{""}, expandOne(t, sh, `"${OFF:+yes}"`))
	sh.OS.Setenv("ON", "1")
	assert.Equal(t, []string{"yes"}, expandOne(t, sh, "${ON:+yes}"))
}

func TestExpandLength(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("WORD", "abcde")

	assert.Equal(t, []string{"5"}, expandOne(t, sh, "${#WORD}"))
	assert.Equal(t, []string{"0"}, expandOne(t, sh, "${#NOPE}"))
}

func TestExpandSpecialParameters(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.SetArgs("script.sh", []string{"one", "two"})
	sh.lastExit = 42

	assert.Equal(t, []string{"42"}, expandOne(t, sh, "$?"))
	assert.Equal(t, []string{"script.sh"}, expandOne(t, sh, "$0"))
	assert.Equal(t, []string{"one"}, expandOne(t, sh, "$1"))
	assert.Equal(t, []string{"2"}, expandOne(t, sh, "$#"))
	assert.Equal(t, []string{"one", "two"}, expandOne(t, sh, "$@"))
}

func TestExpandCommandSubstitution(t *testing.T) {
	sh, _, _ := newTestShell(t)

	// The trailing newline of the captured output is dropped.
	assert.Equal(t, []string{"hi"}, expandOne(t, sh, "$(echo hi)"))
}

func TestExpandCommandSubstitutionSplits(t *testing.T) {
	sh, stdout, _ := newTestShell(t)

	sh.Execute("args $(echo one two)")
	assert.Equal(t, "one\ntwo\n", stdout.String())
}

func TestExpandCommandSubstitutionIsolated(t *testing.T) {
	sh, _, _ := newTestShell(t)

	// Environment changes inside $() never escape the subshell.
	sh.Execute("PROBE=$(LEAK=1 echo x)")
	_, ok := sh.OS.LookupEnv("LEAK")
	assert.False(t, ok)
}

func TestExpandArithmetic(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("N", "10")

	assert.Equal(t, []string{"14"}, expandOne(t, sh, "$((2+3*4))"))
	assert.Equal(t, []string{"11"}, expandOne(t, sh, "$((N+1))"))
	assert.Equal(t, []string{"11"}, expandOne(t, sh, "$(($N+1))"))
}

func TestExpandedValueNeverReExpanded(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("INNER", "boom")
	sh.OS.Setenv("OUTER", "$INNER")

	// The substituted value is literal text, not a new expansion.
	assert.Equal(t, []string{"$INNER"}, expandOne(t, sh, "$OUTER"))
}

func TestExpandSubstitutedGlobStaysLiteral(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.OS.Setenv("PAT", "*")

	sh.Execute("args $PAT")
	assert.Equal(t, "*\n", stdout.String())
}

func TestExpandSingleQuotesSuppressEverything(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("NAME", "value")

	assert.Equal(t, []string{"$NAME"}, expandOne(t, sh, "'$NAME'"))
}

func TestExpandDoubleQuotesKeepDollar(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.OS.Setenv("NAME", "two words")

	// Quoted expansion stays one field.
	assert.Equal(t, []string{"two words"}, expandOne(t, sh, `"$NAME"`))
}

func TestExpandAlias(t *testing.T) {
	sh, _, _ := newTestShell(t)
	sh.Aliases["ll"] = "args -l"

	tokens, err := Tokenize("ll /tmp")
	require.NoError(t, err)
	expanded := sh.expandAlias(tokens)
	require.Len(t, expanded, 3)
	assert.Equal(t, "args", expanded[0].Text)
	assert.Equal(t, "-l", expanded[1].Text)
	assert.Equal(t, "/tmp", expanded[2].Text)
}

func TestExpandAliasNotRecursive(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.Aliases["echo"] = "echo aliased"

	sh.Execute("echo plain")
	assert.Equal(t, "aliased plain\n", stdout.String())
}

func TestExpandAliasQuotedNameUntouched(t *testing.T) {
	sh, stdout, _ := newTestShell(t)
	sh.Aliases["echo"] = "echo aliased"

	sh.Execute(`"echo" plain`)
	assert.Equal(t, "plain\n", stdout.String())
}

func TestExpandSubstitutionDepthBounded(t *testing.T) {
	sh, _, stderr := newTestShell(t)
	sh.funcs["loop"] = &functionDef{
		name: "loop",
		body: []node{&lineNode{text: "echo $(loop)"}},
	}

	// Terminates instead of recursing forever; the deepest level
	// reports the failure.
	sh.Execute("echo $(loop)")
	assert.Contains(t, stderr.String(), "nested too deeply")
}
