package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOwnerRepo(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{name: "ssh remote", remote: "git@github.com:acme/widgets.git", wantOwner: "acme", wantRepo: "widgets"},
		{name: "https remote", remote: "https://github.com/acme/widgets.git", wantOwner: "acme", wantRepo: "widgets"},
		{name: "https without .git", remote: "https://github.com/acme/widgets", wantOwner: "acme", wantRepo: "widgets"},
		{name: "plain owner/repo", remote: "acme/widgets", wantOwner: "acme", wantRepo: "widgets"},
		{name: "missing repo", remote: "acme", wantErr: true},
		{name: "empty owner", remote: "/widgets", wantErr: true},
		{name: "malformed ssh", remote: "git@github.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ExtractOwnerRepo(tt.remote)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}
