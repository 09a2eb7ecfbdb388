package ghub

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	clog "github.com/charmbracelet/log"

	"github.com/pullman-cli/pullman/internal/api"
)

// DefaultPRLimit is the maximum number of pull requests returned by List.
const DefaultPRLimit = 20

// diffMediaType asks the REST API for the raw unified diff of a PR.
const diffMediaType = "application/vnd.github.diff"

// Service implements PullRequests over the resilient api client.
type Service struct {
	client *api.Client
	log    *clog.Logger
}

var _ PullRequests = &Service{}

// NewService creates a pull-request service backed by the given client.
func NewService(client *api.Client) *Service {
	return &Service{
		client: client,
		log:    clog.Default().WithPrefix("ghub"),
	}
}

func (s *Service) Get(ctx context.Context, repo Repo, number int) (PullRequest, error) {
	var pr PullRequest
	if err := s.client.Get(ctx, prPath(repo, number), nil, &pr); err != nil {
		return PullRequest{}, err
	}
	return pr, nil
}

func (s *Service) List(ctx context.Context, repo Repo, opts ListOptions) ([]PullRequest, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPRLimit
	}

	query := url.Values{}
	query.Set("state", opts.State.apiState())
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("sort", "updated")
	query.Set("direction", "desc")

	var prs []PullRequest
	if err := s.client.Get(ctx, fmt.Sprintf("/repos/%s/%s/pulls", repo.Owner, repo.Name), query, &prs); err != nil {
		return nil, err
	}

	// The list endpoint cannot filter merged from closed, and draft is a
	// sub-state of open; both are folded client-side.
	if opts.State != "" {
		filtered := prs[:0]
		for _, pr := range prs {
			if matchState(pr.State, opts.State) {
				filtered = append(filtered, pr)
			}
		}
		prs = filtered
	}

	s.log.Debug("Listed pull requests", "repo", repo, "count", len(prs))
	return prs, nil
}

func (s *Service) Approve(ctx context.Context, repo Repo, number int, body string) error {
	review := struct {
		Event string `json:"event"`
		Body  string `json:"body,omitempty"`
	}{Event: "APPROVE", Body: body}

	if err := s.client.Post(ctx, prPath(repo, number)+"/reviews", review, nil); err != nil {
		return err
	}
	s.log.Debug("Approved pull request", "repo", repo, "number", number)
	return nil
}

func (s *Service) Diff(ctx context.Context, repo Repo, number int) (string, error) {
	var diff string
	if err := s.client.Get(ctx, prPath(repo, number), nil, &diff, api.WithAccept(diffMediaType)); err != nil {
		return "", err
	}
	return diff, nil
}

func prPath(repo Repo, number int) string {
	return fmt.Sprintf("/repos/%s/%s/pulls/%d", repo.Owner, repo.Name, number)
}

func matchState(got, want PRState) bool {
	if want == PRStateOpen {
		// Open listings include drafts, matching what reviewers expect
		// to see in a review queue.
		return got == PRStateOpen || got == PRStateDraft
	}
	return got == want
}
