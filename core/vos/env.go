package vos

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// VEnv is the environment variable surface of a process.
type VEnv interface {
	// Setenv sets the value of the variable named by the key.
	Setenv(key, value string) error

	// Unsetenv removes a single variable.
	Unsetenv(key string) error

	// LookupEnv retrieves the value of the variable named by the key and
	// whether it was present at all, so empty and unset can be told apart.
	LookupEnv(key string) (string, bool)

	// Getenv retrieves the value of the variable named by the key, blank
	// if the variable is unset.
	Getenv(key string) string

	// Environ returns a copy of the environment as "key=value" pairs,
	// sorted by key.
	Environ() []string

	// Clearenv deletes all variables.
	Clearenv()
}

// NewMapEnv creates an empty in-memory environment.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnviron creates an environment seeded from "key=value"
// pairs in the style of os.Environ.
func NewMapEnvFromEnviron(environ []string) *MapEnv {
	out := &MapEnv{}
	for _, pair := range environ {
		key, value := splitEnvPair(pair)
		_ = out.Setenv(key, value)
	}
	return out
}

func splitEnvPair(pair string) (key, value string) {
	split := strings.SplitN(pair, "=", 2)
	if len(split) > 1 {
		return split[0], split[1]
	}
	return split[0], ""
}

// MapEnv is a VEnv backed by a map. Safe for concurrent use.
type MapEnv struct {
	mu   sync.RWMutex
	vars map[string]string
}

var _ VEnv = (*MapEnv)(nil)

func (m *MapEnv) Setenv(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vars == nil {
		m.vars = make(map[string]string)
	}
	m.vars[key] = value
	return nil
}

func (m *MapEnv) Unsetenv(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vars, key)
	return nil
}

func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.vars[key]
	return value, ok
}

func (m *MapEnv) Getenv(key string) string {
	value, _ := m.LookupEnv(key)
	return value
}

func (m *MapEnv) Environ() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.vars))
	for k, v := range m.vars {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func (m *MapEnv) Clearenv() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars = make(map[string]string)
}
