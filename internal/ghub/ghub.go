// Package ghub shapes GitHub REST responses into display structs. It has no
// retry or rate-limit logic of its own; everything funnels through the api
// client.
package ghub

import (
	"context"
	"fmt"
	"strings"
)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo parses an "owner/name" reference.
func ParseRepo(ref string) (Repo, error) {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository reference %q, expected owner/name", ref)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// ListOptions filters a pull-request listing.
type ListOptions struct {
	State PRState // defaults to PRStateOpen
	Limit int     // defaults to DefaultPRLimit
}

// PullRequests provides pull-request operations against one repository host.
type PullRequests interface {

	// Get returns a single pull request by number.
	Get(ctx context.Context, repo Repo, number int) (PullRequest, error)

	// List returns pull requests matching the given options.
	List(ctx context.Context, repo Repo, opts ListOptions) ([]PullRequest, error)

	// Approve submits an approving review with an optional body.
	Approve(ctx context.Context, repo Repo, number int, body string) error

	// Diff returns the unified diff of a pull request.
	Diff(ctx context.Context, repo Repo, number int) (string, error)
}
