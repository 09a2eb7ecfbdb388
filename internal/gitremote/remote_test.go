package gitremote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullman-cli/pullman/internal/apierr"
	"github.com/pullman-cli/pullman/internal/ghub"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		remoteURL string
		want      ghub.Repo
		wantOK    bool
	}{
		{
			name:      "https",
			remoteURL: "https://github.com/octo/widgets",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "https with .git suffix",
			remoteURL: "https://github.com/octo/widgets.git",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "https with trailing slash",
			remoteURL: "https://github.com/octo/widgets/",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "scp-like ssh",
			remoteURL: "git@github.com:octo/widgets.git",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "ssh scheme",
			remoteURL: "ssh://git@github.com/octo/widgets.git",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "surrounding whitespace",
			remoteURL: "  https://github.com/octo/widgets.git\n",
			want:      ghub.Repo{Owner: "octo", Name: "widgets"},
			wantOK:    true,
		},
		{
			name:      "dotted repository name",
			remoteURL: "git@github.com:octo/widgets.js.git",
			want:      ghub.Repo{Owner: "octo", Name: "widgets.js"},
			wantOK:    true,
		},
		{
			name:      "other host",
			remoteURL: "https://gitlab.com/octo/widgets.git",
			wantOK:    false,
		},
		{
			name:      "missing repository segment",
			remoteURL: "https://github.com/octo",
			wantOK:    false,
		},
		{
			name:      "empty",
			remoteURL: "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRemoteURL(tt.remoteURL)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDetect_OutsideRepository(t *testing.T) {
	detector := New(t.TempDir(), 5*time.Second)

	_, err := detector.Detect()
	require.Error(t, err)
	assert.Equal(t, apierr.KindRepository, apierr.KindOf(err))
}
