package media

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Shhrii/Sankshep-App/internal/validation"
)

func lookPathIn(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func builtinRegistry(t *testing.T) *OpenerRegistry {
	t.Helper()
	r, err := parseOpeners(openersTOML)
	if err != nil {
		t.Fatalf("parsing embedded openers: %v", err)
	}
	return r
}

func TestCandidates(t *testing.T) {
	r := builtinRegistry(t)

	tests := []struct {
		goos string
		want []string
	}{
		{goos: "darwin", want: []string{"open"}},
		{goos: "linux", want: []string{"xdg-open", "sensible-browser"}},
		{goos: "windows", want: []string{"rundll32"}},
		{goos: "plan9", want: []string{"xdg-open"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := r.Candidates(tt.goos); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%s) = %v, want %v", tt.goos, got, tt.want)
			}
		})
	}
}

func TestFindCommand(t *testing.T) {
	tests := []struct {
		name     string
		commands []string
		want     string
	}{
		{name: "empty list returns empty", commands: nil, want: ""},
		{name: "none available", commands: []string{"missing", "also-missing"}, want: ""},
		{name: "first available wins", commands: []string{"missing", "sensible-browser", "xdg-open"}, want: "sensible-browser"},
	}

	lookPath := lookPathIn("sensible-browser", "xdg-open")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findCommand(lookPath, tt.commands...); got != tt.want {
				t.Errorf("findCommand(%v) = %q, want %q", tt.commands, got, tt.want)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	r := builtinRegistry(t)
	link := "https://pubmed.ncbi.nlm.nih.gov/34559859/"

	cmd, err := r.Command("rundll32", "windows", link)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{"rundll32", "url.dll,FileProtocolHandler", link}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("args = %v, want %v", cmd.Args, want)
	}

	cmd, err = r.Command("xdg-open", "linux", link)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if !reflect.DeepEqual(cmd.Args, []string{"xdg-open", link}) {
		t.Errorf("args = %v", cmd.Args)
	}

	if _, err := r.Command("rundll32", "linux", link); err == nil {
		t.Error("expected an error for an opener on the wrong platform")
	}

	cmd, err = r.Command("firefox", "linux", link)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if !reflect.DeepEqual(cmd.Args, []string{"firefox", link}) {
		t.Errorf("unknown openers take the link as the only argument, got %v", cmd.Args)
	}
}

func TestUserConfigOverrides(t *testing.T) {
	r := builtinRegistry(t)

	path := filepath.Join(t.TempDir(), "openers.toml")
	user := `
[openers.firefox]
description = "Firefox"
platforms = ["linux"]
args = ["--new-tab"]

[platforms.linux]
candidates = ["firefox", "xdg-open"]
`
	if err := os.WriteFile(path, []byte(user), 0o644); err != nil {
		t.Fatal(err)
	}
	r.loadUserConfig(path)

	if got := r.Candidates("linux"); !reflect.DeepEqual(got, []string{"firefox", "xdg-open"}) {
		t.Errorf("Candidates(linux) = %v", got)
	}
	if got := r.Candidates("darwin"); !reflect.DeepEqual(got, []string{"open"}) {
		t.Errorf("built-in platforms must survive the merge, got %v", got)
	}

	cmd, err := r.Command("firefox", "linux", "https://sankshep.app/poll/")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cmd.Args, []string{"firefox", "--new-tab", "https://sankshep.app/poll/"}) {
		t.Errorf("args = %v", cmd.Args)
	}

	// unreadable or broken files are ignored
	r.loadUserConfig(filepath.Join(t.TempDir(), "missing.toml"))
	broken := filepath.Join(t.TempDir(), "broken.toml")
	_ = os.WriteFile(broken, []byte("[openers"), 0o644)
	r.loadUserConfig(broken)
	if got := r.Candidates("linux"); len(got) != 2 {
		t.Errorf("Candidates(linux) changed after a bad file: %v", got)
	}
}

func TestLauncherOpen(t *testing.T) {
	l := newLauncher(builtinRegistry(t), "linux", "", lookPathIn("xdg-open"))
	if l.Opener() != "xdg-open" {
		t.Fatalf("Opener() = %q", l.Opener())
	}

	var started []string
	l.start = func(cmd *exec.Cmd) error {
		started = cmd.Args
		return nil
	}

	if err := l.Open("  https://journal.org/article  "); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !reflect.DeepEqual(started, []string{"xdg-open", "https://journal.org/article"}) {
		t.Errorf("started %v", started)
	}
}

func TestLauncherRejectsInvalidLinks(t *testing.T) {
	l := newLauncher(builtinRegistry(t), "linux", "", lookPathIn("xdg-open"))
	l.start = func(cmd *exec.Cmd) error {
		t.Errorf("nothing should start for an invalid link, got %v", cmd.Args)
		return nil
	}

	for _, link := range []string{"not a url", "", "javascript:alert(1)", "ftp://files.org/a", "http://localhost/x"} {
		err := l.Open(link)
		if !errors.Is(err, validation.ErrInvalidURL) {
			t.Errorf("Open(%q) = %v, want ErrInvalidURL", link, err)
		}
	}
}

func TestLauncherBrowserEnv(t *testing.T) {
	l := newLauncher(builtinRegistry(t), "linux", "firefox", lookPathIn("xdg-open", "firefox"))
	if l.Opener() != "firefox" {
		t.Errorf("Opener() = %q, want firefox", l.Opener())
	}

	l = newLauncher(builtinRegistry(t), "linux", "missing-browser", lookPathIn("xdg-open"))
	if l.Opener() != "xdg-open" {
		t.Errorf("an unresolvable $BROWSER falls back, got %q", l.Opener())
	}
}

func TestLauncherNoOpener(t *testing.T) {
	l := newLauncher(builtinRegistry(t), "linux", "", lookPathIn())
	if err := l.Open("https://sankshep.app/"); !errors.Is(err, ErrNoOpener) {
		t.Errorf("Open = %v, want ErrNoOpener", err)
	}
}

func TestLauncherStartFailure(t *testing.T) {
	l := newLauncher(builtinRegistry(t), "darwin", "", lookPathIn("open"))
	l.start = func(*exec.Cmd) error { return errors.New("exec format error") }

	err := l.Open("https://sankshep.app/")
	if err == nil || err.Error() != "failed to start open: exec format error" {
		t.Errorf("Open = %v", err)
	}
}
