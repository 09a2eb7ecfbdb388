package ghub

import (
	"encoding/json"
	"fmt"
	"time"
)

type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateClosed PRState = "CLOSED"
	PRStateMerged PRState = "MERGED"
	PRStateDraft  PRState = "DRAFT" // Virtual state: the API returns open + draft=true
)

func (s PRState) String() string {
	return string(s)
}

func (s PRState) IsValid() bool {
	switch s {
	case PRStateOpen, PRStateClosed, PRStateMerged, PRStateDraft:
		return true
	}
	return false
}

// apiState converts the state to the REST list-endpoint filter value.
func (s PRState) apiState() string {
	switch s {
	case PRStateClosed, PRStateMerged:
		return "closed"
	case "":
		return "open"
	default:
		return "open"
	}
}

type PullRequest struct {
	Number       int
	BranchName   string
	State        PRState
	Title        string
	AuthorLogin  string
	Body         string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LinesAdded   int
	LinesDeleted int
	FilesChanged int
}

func (pr *PullRequest) UnmarshalJSON(data []byte) error {
	type rawPR struct {
		Number    int       `json:"number"`
		State     string    `json:"state"`
		Draft     bool      `json:"draft"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		HTMLURL   string    `json:"html_url"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		MergedAt  *string   `json:"merged_at"`
		Additions int       `json:"additions"`
		Deletions int       `json:"deletions"`
		Changed   int       `json:"changed_files"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
	}
	var raw rawPR
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pr.Number = raw.Number
	pr.BranchName = raw.Head.Ref
	pr.Title = raw.Title
	pr.Body = raw.Body
	pr.URL = raw.HTMLURL
	pr.CreatedAt = raw.CreatedAt
	pr.UpdatedAt = raw.UpdatedAt
	pr.LinesAdded = raw.Additions
	pr.LinesDeleted = raw.Deletions
	pr.FilesChanged = raw.Changed
	pr.AuthorLogin = raw.User.Login

	switch {
	case raw.State == "open" && raw.Draft:
		pr.State = PRStateDraft
	case raw.State == "open":
		pr.State = PRStateOpen
	case raw.State == "closed" && raw.MergedAt != nil:
		pr.State = PRStateMerged
	case raw.State == "closed":
		pr.State = PRStateClosed
	default:
		return fmt.Errorf("unknown PR state: %s", raw.State)
	}

	return nil
}
