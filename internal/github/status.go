package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v75/github"

	"cicompare/internal/classify"
	"cicompare/internal/config"
	"cicompare/internal/outcome"
)

const (
	StateSuccess = "success"
	StateFailure = "failure"

	// GitHub rejects descriptions longer than this.
	maxDescriptionLen = 140
)

// Status is the commit status derived from one comparison outcome.
type Status struct {
	State       string
	Description string
	TargetURL   string
	Context     string
}

// StatusFor maps an outcome to a commit status. Big diffs fail the status;
// small diffs are noted in the description only.
func StatusFor(o outcome.Outcome, targetURL string) Status {
	st := Status{
		State:     StateSuccess,
		TargetURL: targetURL,
		Context:   "regressions/" + o.Case,
	}

	var big, small []string
	for _, r := range o.Results {
		switch r.Severity {
		case classify.SeverityBig:
			big = append(big, r.Artifact.Label())
		case classify.SeveritySmall:
			small = append(small, r.Artifact.Label())
		}
	}

	switch {
	case o.HasDiffs:
		st.State = StateFailure
		st.Description = "Big diffs: " + strings.Join(big, ", ")
		if len(small) > 0 {
			st.Description += "; small diffs: " + strings.Join(small, ", ")
		}
	case o.HasSmallDiffs:
		st.Description = "Small diffs: " + strings.Join(small, ", ")
	default:
		st.Description = "No diffs"
	}
	st.Description = truncate(st.Description, maxDescriptionLen)
	return st
}

// StatusNotifier posts comparison outcomes as commit statuses.
type StatusNotifier struct {
	client *Client
	owner  string
	repo   string
}

// NewStatusNotifier returns a notifier for the OWNER/REPO repository.
func NewStatusNotifier(c *Client, ownerRepo string) (*StatusNotifier, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("status notifier: client is nil")
	}
	owner, repo, err := config.SplitRepo(ownerRepo)
	if err != nil {
		return nil, fmt.Errorf("status notifier: %w", err)
	}
	return &StatusNotifier{client: c, owner: owner, repo: repo}, nil
}

// Notify posts the status for o on commit sha.
func (n *StatusNotifier) Notify(ctx context.Context, sha string, o outcome.Outcome, targetURL string) (Status, error) {
	st := StatusFor(o, targetURL)
	if strings.TrimSpace(sha) == "" {
		return st, fmt.Errorf("status notifier: commit sha is empty")
	}

	req := &github.RepoStatus{
		State:       github.Ptr(st.State),
		Description: github.Ptr(st.Description),
		Context:     github.Ptr(st.Context),
	}
	if st.TargetURL != "" {
		req.TargetURL = github.Ptr(st.TargetURL)
	}

	if _, _, err := n.client.Client.Repositories.CreateStatus(ctx, n.owner, n.repo, sha, req); err != nil {
		return st, fmt.Errorf("create status on %s/%s@%s: %w", n.owner, n.repo, sha, err)
	}
	return st, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
