package shell

import (
	"strings"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// SessionState is the part of a session worth keeping across logins:
// environment, aliases and history. The job table is deliberately not
// part of it; jobs die with the session.
type SessionState struct {
	Env     map[string]string `json:"env,omitempty"`
	Aliases map[string]string `json:"aliases,omitempty"`
	History []string          `json:"history,omitempty"`
}

// Snapshot captures the current session state.
func (sh *Shell) Snapshot() *SessionState {
	env := make(map[string]string)
	for _, pair := range sh.OS.Environ() {
		if kv := strings.SplitN(pair, "=", 2); len(kv) == 2 {
			env[kv[0]] = kv[1]
		}
	}
	return &SessionState{
		Env:     env,
		Aliases: copyStringMap(sh.Aliases),
		History: sh.History(),
	}
}

// SaveState writes the session state as YAML to path on the session's
// filesystem.
func (sh *Shell) SaveState(path string) error {
	data, err := yaml.Marshal(sh.Snapshot())
	if err != nil {
		return err
	}
	return afero.WriteFile(sh.OS, path, data, 0600)
}

// LoadState merges a previously saved state into the session. Loaded
// values overwrite current ones; unknown keys in the file are an
// error so corrupted state is caught early.
func (sh *Shell) LoadState(path string) error {
	data, err := afero.ReadFile(sh.OS, path)
	if err != nil {
		return err
	}
	var state SessionState
	if err := yaml.UnmarshalStrict(data, &state); err != nil {
		return err
	}

	for key, value := range state.Env {
		sh.OS.Setenv(key, value)
	}
	for name, value := range state.Aliases {
		sh.Aliases[name] = value
	}
	for _, line := range state.History {
		sh.AddHistory(line)
	}
	return nil
}
