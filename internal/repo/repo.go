package repo

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrToolUnavailable is returned when the git binary cannot be found on PATH.
var ErrToolUnavailable = errors.New("git binary not found")

// ErrNotARepository is returned when the target path is not a git repository.
var ErrNotARepository = errors.New("not a git repository")

// Commit is one entry of the repository's history, parsed from git log output.
type Commit struct {
	Hash      string
	Author    string
	Email     string
	Timestamp int64
	Message   string
}

// Repo is a read-only view of a local git repository. All queries shell out to
// git and reflect whatever the on-disk history holds at call time.
type Repo struct {
	Root string
}

// Open validates the path and returns a Repo rooted there.
func Open(path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("path does not exist or is not a directory: %s", absPath)
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	if _, err := os.Stat(filepath.Join(absPath, ".git")); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, absPath)
	}

	return &Repo{Root: absPath}, nil
}

// logFormat yields one pipe-delimited line per commit:
// hash|author|email|epoch-seconds|subject
const logFormat = "%H|%an|%ae|%at|%s"

// Commits returns all commits across all refs, in git's own enumeration order.
// Lines with fewer than five fields are dropped without error.
func (r *Repo) Commits() ([]Commit, error) {
	out, err := r.git("log", "--all", "--format="+logFormat)
	if err != nil {
		// A repository with no commits yet makes git log fail; treat it
		// the same as an empty history.
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, fmt.Errorf("git log failed: %w", err)
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue
		}
		ts, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, Commit{
			Hash:      parts[0],
			Author:    parts[1],
			Email:     parts[2],
			Timestamp: ts,
			Message:   parts[4],
		})
	}
	return commits, nil
}

// TrackedFiles lists all paths under version control, optionally filtered by a
// git pathspec glob such as "*.md".
func (r *Repo) TrackedFiles(pattern string) ([]string, error) {
	args := []string{"ls-files"}
	if pattern != "" {
		args = append(args, pattern)
	}
	out, err := r.git(args...)
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %w", err)
	}

	var files []string
	for _, f := range strings.Split(out, "\n") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// Head returns the current HEAD commit SHA, or "" when there is none.
func (r *Repo) Head() string {
	out, err := r.git("rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return out
}

// CommitCount returns the total number of commits across all refs.
func (r *Repo) CommitCount() (int, error) {
	out, err := r.git("rev-list", "--all", "--count")
	if err != nil {
		return 0, fmt.Errorf("git rev-list failed: %w", err)
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

func (r *Repo) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", r.Root}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
