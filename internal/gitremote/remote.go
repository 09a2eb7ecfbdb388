// Package gitremote detects which GitHub repository the working directory
// belongs to by inspecting the origin remote.
package gitremote

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/ghub"
)

// Detector resolves the GitHub repository for a working directory by
// executing real git commands.
type Detector struct {
	log        *clog.Logger
	timeout    time.Duration
	workingDir string
}

// New creates a Detector that executes git commands in the specified
// working directory.
func New(workingDir string, timeout time.Duration) *Detector {
	return &Detector{
		log:        clog.Default().WithPrefix("git"),
		timeout:    timeout,
		workingDir: workingDir,
	}
}

// Detect returns the repository behind the origin remote. A directory with
// no GitHub origin yields a Repository-kind error the caller can print.
func (d *Detector) Detect() (ghub.Repo, error) {
	remoteURL, err := d.executeGitCommand("remote", "get-url", "origin")
	if err != nil {
		return ghub.Repo{}, apierr.Wrap(apierr.KindRepository, err, "could not determine repository; run inside a git repository or pass --repo")
	}

	repo, ok := ParseRemoteURL(remoteURL)
	if !ok {
		return ghub.Repo{}, apierr.Newf(apierr.KindRepository, "origin remote %q is not a GitHub repository", remoteURL)
	}

	d.log.Debug("Detected repository", "remote", remoteURL, "repo", repo)
	return repo, nil
}

func (d *Detector) executeGitCommand(args ...string) (string, error) {
	d.log.Debug("Executing git command", "cmd", "git", "args", args, "workingDir", d.workingDir)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.workingDir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			d.log.Warn("git command timed out", "args", args, "timeout", d.timeout, "error", err)
			return "", fmt.Errorf("git %s timed out after %s", strings.Join(args, " "), d.timeout)
		}
		d.log.Warn("Git command failed", "args", args, "stderr", stderr.String(), "error", err)
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Matches https://github.com/owner/name(.git) and git@github.com:owner/name(.git).
var remotePattern = regexp.MustCompile(`^(?:https://github\.com/|git@github\.com:|ssh://git@github\.com/)([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemoteURL extracts the owner and name from a GitHub remote URL.
func ParseRemoteURL(remoteURL string) (ghub.Repo, bool) {
	matches := remotePattern.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if matches == nil {
		return ghub.Repo{}, false
	}
	return ghub.Repo{Owner: matches[1], Name: matches[2]}, true
}
