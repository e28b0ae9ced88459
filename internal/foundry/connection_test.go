package foundry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/config"
)

const (
	projectConnID = "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.CognitiveServices/accounts/acct/projects/proj/connections/bing"
	accountConnID = "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.CognitiveServices/accounts/acct/connections/bing"
)

func TestResolveBingConnection_ProjectScopedIDUsedAsIs(t *testing.T) {
	got, err := ResolveBingConnection(context.Background(), NewFakeClient(),
		config.BingConfig{ConnectionID: projectConnID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != projectConnID {
		t.Errorf("got %q, want the project-scoped id unchanged", got)
	}
}

func TestResolveBingConnection_AccountScopedIDResolvedByName(t *testing.T) {
	fake := NewFakeClient()
	fake.Connections = []Connection{{ID: projectConnID, Name: "bing", Target: "https://api.bing.microsoft.com/"}}

	got, err := ResolveBingConnection(context.Background(), fake,
		config.BingConfig{ConnectionID: accountConnID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != projectConnID {
		t.Errorf("got %q, want re-resolved project id", got)
	}
}

func TestResolveBingConnection_AccountScopedIDUseNameMode(t *testing.T) {
	got, err := ResolveBingConnection(context.Background(), NewFakeClient(),
		config.BingConfig{ConnectionID: accountConnID, UseConnectionName: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bing" {
		t.Errorf("got %q, want bare name in use-name mode", got)
	}
}

func TestResolveBingConnection_InvalidIDWarnsAndFallsThrough(t *testing.T) {
	fake := NewFakeClient()
	fake.Connections = []Connection{{ID: projectConnID, Name: "binggrounding"}}

	var warn bytes.Buffer
	got, err := ResolveBingConnection(context.Background(), fake,
		config.BingConfig{ConnectionID: "not-an-arm-id", ConnectionName: "binggrounding"}, &warn)
	if err != nil {
		t.Fatal(err)
	}
	if got != projectConnID {
		t.Errorf("got %q, want name lookup result", got)
	}
	if !strings.Contains(warn.String(), "WARNING") {
		t.Errorf("warn = %q, want a warning about the invalid id", warn.String())
	}
}

func TestResolveBingConnection_AutoDetectSingleCandidate(t *testing.T) {
	fake := NewFakeClient()
	fake.Connections = []Connection{
		{ID: "other", Name: "openai-conn", Target: "https://openai.example"},
		{ID: projectConnID, Name: "my-grounding", Target: "https://api.bing.microsoft.com/"},
	}

	got, err := ResolveBingConnection(context.Background(), fake, config.BingConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != projectConnID {
		t.Errorf("got %q, want auto-detected id", got)
	}
}

func TestResolveBingConnection_AmbiguousAutoDetectReturnsEmpty(t *testing.T) {
	fake := NewFakeClient()
	fake.Connections = []Connection{
		{ID: "a", Name: "bing-one"},
		{ID: "b", Name: "bing-two"},
	}

	got, err := ResolveBingConnection(context.Background(), fake, config.BingConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty for ambiguous candidates", got)
	}
}

func TestChooseDeployment_Configured(t *testing.T) {
	got, err := ChooseDeployment(context.Background(), NewFakeClient(), "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	if got != "gpt-4o" {
		t.Errorf("got %q", got)
	}
}

func TestChooseDeployment_SingleAutoPick(t *testing.T) {
	fake := NewFakeClient()
	fake.Deployments = []Deployment{{Name: "only-model"}}

	got, err := ChooseDeployment(context.Background(), fake, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "only-model" {
		t.Errorf("got %q", got)
	}
}

func TestChooseDeployment_NoneIsError(t *testing.T) {
	if _, err := ChooseDeployment(context.Background(), NewFakeClient(), ""); err == nil {
		t.Fatal("want error when no deployments exist")
	}
}

func TestChooseDeployment_MultipleListsNames(t *testing.T) {
	fake := NewFakeClient()
	fake.Deployments = []Deployment{{Name: "zeta"}, {Name: "alpha"}}

	_, err := ChooseDeployment(context.Background(), fake, "")
	if err == nil {
		t.Fatal("want error for multiple deployments")
	}
	if !strings.Contains(err.Error(), "alpha, zeta") {
		t.Errorf("error %q should list sorted deployment names", err)
	}
}
