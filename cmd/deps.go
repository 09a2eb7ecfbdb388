package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pullman-cli/pullman/internal/api"
	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/auth"
	"github.com/pullman-cli/pullman/internal/config"
	"github.com/pullman-cli/pullman/internal/ghub"
	"github.com/pullman-cli/pullman/internal/gitremote"
	"github.com/pullman-cli/pullman/internal/ratelimit"
	"github.com/pullman-cli/pullman/internal/secrets"
)

// appContext holds the wired-up dependency graph every command runs
// against. One credential store, one rate-limit tracker, one client.
type appContext struct {
	cfg     config.Config
	store   secrets.Store
	client  *api.Client
	session *auth.Session
	prs     ghub.PullRequests
}

func newAppContext() (*appContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	loader := config.NewDefaultLoader()
	loadResult, err := loader.Load(config.ConfigPaths(cwd))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := loadResult.Config

	store := secrets.Open()
	tracker := ratelimit.NewTracker()
	client := api.New(store, tracker,
		api.WithBaseURL(cfg.GitHub.APIBaseURL),
		api.WithMaxRetries(cfg.HTTP.MaxRetries),
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
	)

	return &appContext{
		cfg:     cfg,
		store:   store,
		client:  client,
		session: auth.NewSession(store, client),
		prs:     ghub.NewService(client),
	}, nil
}

func (a *appContext) newFlow(opts ...auth.FlowOption) *auth.Flow {
	opts = append([]auth.FlowOption{auth.WithWebBaseURL(a.cfg.GitHub.WebBaseURL)}, opts...)
	return auth.NewFlow(a.cfg.GitHub.ClientID, a.client, a.store, opts...)
}

// resolveRepo picks the repository from the --repo flag or falls back to
// origin-remote detection in the current directory.
func (a *appContext) resolveRepo(repoFlag string) (ghub.Repo, error) {
	if repoFlag != "" {
		return ghub.ParseRepo(repoFlag)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ghub.Repo{}, fmt.Errorf("failed to get current directory: %w", err)
	}
	return gitremote.New(cwd, a.cfg.Git.Timeout).Detect()
}

// describeError turns a classified error into the message printed to the
// user, adding a wait estimate for rate-limit failures.
func describeError(err error) error {
	typed := apierr.AsError(err)
	if typed == nil {
		return err
	}
	if typed.Kind() == apierr.KindRateLimit {
		resetAt := time.Unix(typed.ResetAt(), 0)
		return fmt.Errorf("GitHub API rate limit exceeded; resets %s", humanize.Time(resetAt))
	}
	return err
}
