// Package process opens URLs by launching local commands, such as the
// platform browser.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/aretw0/liveslides/pkg/urlgate"
)

// DefaultTarget is the launcher used when no launcher matches a target.
const DefaultTarget = "default"

// URLPlaceholder in launcher args is replaced by the URL. Without it the URL
// is appended as the last argument.
const URLPlaceholder = "{url}"

// ErrNoLauncher is returned when no command is configured for a target.
var ErrNoLauncher = errors.New("no launcher configured")

// Opener implements ports.URLOpener by running an allow-listed command.
// The URL is passed as an argument, never through a shell.
type Opener struct {
	launchers map[string]LauncherConfig
	baseDir   string
	output    io.Writer
}

// OpenerOption configures the opener.
type OpenerOption func(*Opener)

// WithLaunchers registers launchers loaded from a config file.
func WithLaunchers(launchers map[string]LauncherConfig) OpenerOption {
	return func(o *Opener) {
		for target, l := range launchers {
			o.launchers[target] = l
		}
	}
}

// WithLauncher registers one launcher.
func WithLauncher(target, command string, args ...string) OpenerOption {
	return func(o *Opener) {
		o.launchers[target] = LauncherConfig{Target: target, Command: command, Args: args}
	}
}

// WithSystemBrowser registers the platform browser as the default launcher.
func WithSystemBrowser() OpenerOption {
	return func(o *Opener) {
		if command, args := systemBrowser(); command != "" {
			o.launchers[DefaultTarget] = LauncherConfig{Target: DefaultTarget, Command: command, Args: args}
		}
	}
}

// WithBaseDir sets the working directory of launched commands.
func WithBaseDir(dir string) OpenerOption {
	return func(o *Opener) { o.baseDir = dir }
}

// WithOutput receives the stdout of launched commands.
func WithOutput(w io.Writer) OpenerOption {
	return func(o *Opener) { o.output = w }
}

// NewOpener creates an opener.
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{launchers: make(map[string]LauncherConfig)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open runs the launcher of target, falling back to the default launcher.
func (o *Opener) Open(ctx context.Context, url, target string) error {
	if _, err := urlgate.Check(url); err != nil {
		return err
	}

	l, ok := o.launchers[target]
	if !ok {
		l, ok = o.launchers[DefaultTarget]
	}
	if !ok {
		return fmt.Errorf("%w for target %q", ErrNoLauncher, target)
	}

	args := make([]string, 0, len(l.Args)+1)
	replaced := false
	for _, a := range l.Args {
		if strings.Contains(a, URLPlaceholder) {
			a = strings.ReplaceAll(a, URLPlaceholder, url)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, url)
	}

	cmd := exec.CommandContext(ctx, l.Command, args...)
	cmd.Dir = o.baseDir

	env := []string{"LIVESLIDES_URL=" + url, "LIVESLIDES_TARGET=" + target}
	for k, v := range l.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stdout = o.output
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("launch %s: %w. Stderr: %s", l.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func systemBrowser() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil
	default:
		return "", nil
	}
}
