package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitHubClient wraps the gh CLI for pull request data. The raw comment
// payload is returned unparsed; classification owns its decoding and its
// tolerance for malformed records.
type GitHubClient interface {
	PRDiff(owner, repo string, number int) (string, error)
	PRComments(owner, repo string, number int) ([]byte, error)
}

// RealGitHubClient implements GitHubClient using the gh CLI.
type RealGitHubClient struct{}

// NewGitHubClient returns a new RealGitHubClient.
func NewGitHubClient() *RealGitHubClient {
	return &RealGitHubClient{}
}

func ghCmd(args ...string) (string, error) {
	out, err := exec.Command("gh", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// PRDiff fetches the unified diff of a pull request.
func (c *RealGitHubClient) PRDiff(owner, repo string, number int) (string, error) {
	return ghCmd("pr", "diff", fmt.Sprintf("%d", number),
		"--repo", fmt.Sprintf("%s/%s", owner, repo),
	)
}

// PRComments fetches the raw issue-comment JSON array for a pull request.
func (c *RealGitHubClient) PRComments(owner, repo string, number int) ([]byte, error) {
	out, err := ghCmd("api",
		fmt.Sprintf("repos/%s/%s/issues/%d/comments?per_page=100", owner, repo, number),
	)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// ExtractOwnerRepo parses a GitHub remote URL or "owner/repo" shorthand and
// returns owner and repo.
func ExtractOwnerRepo(remote string) (owner, repo string, err error) {
	// Handle SSH: git@github.com:owner/repo.git
	if strings.HasPrefix(remote, "git@") {
		parts := strings.SplitN(remote, ":", 2)
		if len(parts) != 2 {
			return "", "", fmt.Errorf("cannot parse SSH remote: %s", remote)
		}
		path := strings.TrimSuffix(parts[1], ".git")
		segments := strings.SplitN(path, "/", 2)
		if len(segments) != 2 {
			return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remote)
		}
		return segments[0], segments[1], nil
	}

	// Handle HTTPS URLs and plain owner/repo
	trimmed := strings.TrimSuffix(remote, ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://github.com/")
	trimmed = strings.TrimPrefix(trimmed, "http://github.com/")
	segments := strings.SplitN(trimmed, "/", 2)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from: %s", remote)
	}
	return segments[0], segments[1], nil
}
