package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// OpenerDefinition describes how a link opener is invoked.
type OpenerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args"`
}

type PlatformConfig struct {
	Candidates []string `toml:"candidates"`
}

type OpenersConfig struct {
	Openers   map[string]OpenerDefinition `toml:"openers"`
	Platforms map[string]PlatformConfig   `toml:"platforms"`
}

// OpenerRegistry holds the known openers and the per-platform preference order.
type OpenerRegistry struct {
	openers   map[string]OpenerDefinition
	platforms map[string]PlatformConfig
}

// NewOpenerRegistry loads the embedded definitions and merges the user's file.
func NewOpenerRegistry() (*OpenerRegistry, error) {
	registry, err := parseOpeners(openersTOML)
	if err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}

	if home, err := os.UserHomeDir(); err == nil {
		registry.loadUserConfig(filepath.Join(home, ".config", "sankshep", "openers.toml"))
	}
	return registry, nil
}

func parseOpeners(data []byte) (*OpenerRegistry, error) {
	var cfg OpenersConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	r := &OpenerRegistry{
		openers:   cfg.Openers,
		platforms: cfg.Platforms,
	}
	if r.openers == nil {
		r.openers = make(map[string]OpenerDefinition)
	}
	if r.platforms == nil {
		r.platforms = make(map[string]PlatformConfig)
	}
	return r, nil
}

// loadUserConfig merges definitions from path; user entries override built-ins.
func (r *OpenerRegistry) loadUserConfig(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseOpeners(data)
	if err != nil {
		return
	}
	for name, def := range user.openers {
		r.openers[name] = def
	}
	for goos, p := range user.platforms {
		r.platforms[goos] = p
	}
}

// Candidates lists the opener names to try on goos, most preferred first.
func (r *OpenerRegistry) Candidates(goos string) []string {
	if p, ok := r.platforms[goos]; ok && len(p.Candidates) > 0 {
		return p.Candidates
	}
	return r.platforms["fallback"].Candidates
}

// Command builds the invocation of opener for link on goos.
func (r *OpenerRegistry) Command(opener, goos, link string) (*exec.Cmd, error) {
	def, ok := r.openers[opener]
	if !ok {
		return exec.Command(opener, link), nil
	}

	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, goos) {
		return nil, fmt.Errorf("%s not supported on %s", opener, goos)
	}

	args := make([]string, 0, len(def.Args)+1)
	args = append(args, def.Args...)
	args = append(args, link)
	return exec.Command(opener, args...), nil
}
