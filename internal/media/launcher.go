package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/validation"
)

var ErrNoOpener = errors.New("no application found to open URL")

// Launcher opens validated web links in the system browser.
type Launcher struct {
	registry  *OpenerRegistry
	goos      string
	opener    string
	validator *validation.LinkValidator
	start     func(*exec.Cmd) error
}

func NewLauncher() *Launcher {
	registry, err := NewOpenerRegistry()
	if err != nil {
		debuglog.Warnf("Loading opener definitions: %v", err)
		registry = &OpenerRegistry{
			openers:   make(map[string]OpenerDefinition),
			platforms: make(map[string]PlatformConfig),
		}
	}
	return newLauncher(registry, runtime.GOOS, os.Getenv("BROWSER"), exec.LookPath)
}

func newLauncher(registry *OpenerRegistry, goos, browser string, lookPath func(string) (string, error)) *Launcher {
	l := &Launcher{
		registry:  registry,
		goos:      goos,
		validator: validation.NewLinkValidator(),
		start:     startDetached,
	}

	// $BROWSER wins when it resolves
	if browser != "" {
		if _, err := lookPath(browser); err == nil {
			l.opener = browser
			return l
		}
	}
	l.opener = findCommand(lookPath, registry.Candidates(goos)...)
	return l
}

// Opener is the command used for links, empty when none was found.
func (l *Launcher) Opener() string {
	return l.opener
}

// Open validates link and hands it to the system opener. Invalid links
// fail with an error wrapping validation.ErrInvalidURL and nothing starts.
func (l *Launcher) Open(link string) error {
	valid, err := l.validator.Validate(link)
	if err != nil {
		return err
	}
	if l.opener == "" {
		return ErrNoOpener
	}

	cmd, err := l.registry.Command(l.opener, l.goos, valid)
	if err != nil {
		return fmt.Errorf("building command: %w", err)
	}

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	debuglog.Infof("Opened %s with %s", valid, l.opener)
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(lookPath func(string) (string, error), commands ...string) string {
	for _, cmd := range commands {
		if _, err := lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
