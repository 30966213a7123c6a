package cli

import (
	"strings"
	"testing"
)

func TestSplitOwnerRepo(t *testing.T) {
	tests := []struct {
		input   string
		owner   string
		repo    string
		wantErr bool
	}{
		{"acme/widget", "acme", "widget", false},
		{"acme/widget/", "acme", "widget", false},
		{"acme", "", "", true},
		{"acme/widget/extra", "", "", true},
		{"/widget", "", "", true},
		{"acme/", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := splitOwnerRepo(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitOwnerRepo(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitOwnerRepo(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("splitOwnerRepo(%q) = %q, %q; want %q, %q", tt.input, owner, repo, tt.owner, tt.repo)
		}
	}
}

func TestIssues_NilPlatform(t *testing.T) {
	origPlatform, origCfg := Platform, GlobalCfg
	defer func() { Platform, GlobalCfg = origPlatform, origCfg }()
	Platform = nil
	GlobalCfg = nil

	err := issuesCmd.RunE(issuesCmd, []string{"acme/widget"})
	if err == nil {
		t.Fatal("expected error without a platform client")
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("error should name the token env var: %v", err)
	}
}

func TestTokenEnvName(t *testing.T) {
	origCfg := GlobalCfg
	defer func() { GlobalCfg = origCfg }()

	GlobalCfg = nil
	if got := tokenEnvName(); got != "GITHUB_TOKEN" {
		t.Errorf("tokenEnvName() = %q, want GITHUB_TOKEN", got)
	}
}
