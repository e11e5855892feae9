// Package gitlocal implements the git operations backend against a
// local repository, for running the console workflow without a remote
// git executor. Read-side inspection goes through go-git; merge, revert
// and commit shell out to the git binary, whose merge machinery go-git
// does not replicate.
package gitlocal

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Client implements domain.GitService against the repository containing
// dir.
type Client struct {
	repo     *gogit.Repository
	repoRoot string
}

// NewClient opens the repository containing dir, searching parent
// directories the way the git binary does.
func NewClient(dir string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, domain.ErrNotGitRepository
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return &Client{repo: repo, repoRoot: wt.Filesystem.Root()}, nil
}

// ChangedFiles lists the files currently modified in the working tree,
// with add/delete counts from git diff --numstat. Local mode has no
// per-task worktrees, so the task path only scopes logging upstream.
func (c *Client) ChangedFiles(ctx context.Context, _ string) ([]domain.FileChange, error) {
	out, err := c.git(ctx, "diff", "HEAD", "--numstat")
	if err != nil {
		return nil, err
	}

	var changes []domain.FileChange
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		fc := domain.FileChange{Path: fields[len(fields)-1]}
		// Binary files report "-" for both counts; leave them zero.
		_, _ = fmt.Sscanf(fields[0], "%d", &fc.Additions)
		_, _ = fmt.Sscanf(fields[1], "%d", &fc.Deletions)
		changes = append(changes, fc)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// HasUncommittedChanges reports staged and unstaged work via go-git's
// worktree status.
func (c *Client) HasUncommittedChanges(_ context.Context, _ string) (*domain.UncommittedState, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	state := &domain.UncommittedState{}
	for path, fs := range status {
		if fs.Worktree == gogit.Unmodified && fs.Staging == gogit.Unmodified {
			continue
		}
		state.UncommittedFiles = append(state.UncommittedFiles, path)
	}
	sort.Strings(state.UncommittedFiles)
	state.HasUncommitted = len(state.UncommittedFiles) > 0
	return state, nil
}

// GenerateCommitMessage builds a conventional one-line message from the
// task title and file list. Local mode has no generation backend; the
// title is the best summary available.
func (c *Client) GenerateCommitMessage(_ context.Context, title, _ string, files []domain.FileChange) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		if len(files) == 0 {
			return "", fmt.Errorf("nothing to describe")
		}
		return fmt.Sprintf("Update %s", files[0].Path), nil
	}
	return title, nil
}

// CommitScoped stages exactly the given files and commits them.
func (c *Client) CommitScoped(ctx context.Context, files []string, message string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to commit")
	}
	args := append([]string{"add", "--"}, files...)
	if _, err := c.git(ctx, args...); err != nil {
		return "", err
	}
	if _, err := c.git(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return c.headHash()
}

// MergeBranch checks out target and merges source with a merge commit.
// Conflicts are reported through the result, not as an error, and the
// merge is aborted to leave the tree clean.
func (c *Client) MergeBranch(ctx context.Context, source, target string) (*domain.MergeResult, error) {
	if _, err := c.git(ctx, "checkout", target); err != nil {
		return nil, err
	}
	if out, err := c.git(ctx, "merge", "--no-ff", source); err != nil {
		_, _ = c.git(ctx, "merge", "--abort")
		return &domain.MergeResult{Success: false, Error: firstLine(out, err)}, nil
	}
	hash, err := c.headHash()
	if err != nil {
		return nil, err
	}
	return &domain.MergeResult{Success: true, MergeCommitHash: hash}, nil
}

// RevertMerge reverts the given merge commit against its first parent.
func (c *Client) RevertMerge(ctx context.Context, commitHash string) (*domain.RevertResult, error) {
	if out, err := c.git(ctx, "revert", "-m", "1", "--no-edit", commitHash); err != nil {
		_, _ = c.git(ctx, "revert", "--abort")
		return &domain.RevertResult{Success: false, Error: firstLine(out, err)}, nil
	}
	hash, err := c.headHash()
	if err != nil {
		return nil, err
	}
	return &domain.RevertResult{Success: true, RevertCommitHash: hash}, nil
}

// headHash resolves HEAD through go-git.
func (c *Client) headHash() (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Commit looks a commit up by hash, for verification in tests and
// history display.
func (c *Client) Commit(hash string) (message string, err error) {
	commit, err := c.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return "", fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	return commit.Message, nil
}

func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func firstLine(out string, err error) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return err.Error()
}

var _ domain.GitService = (*Client)(nil)
