package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iconidentify/skyfurl/internal/domain"
)

func newTestInstallationStore(t *testing.T) *InstallationStore {
	t.Helper()
	store, err := NewInstallationStore(filepath.Join(t.TempDir(), "installations.db"))
	if err != nil {
		t.Fatalf("NewInstallationStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testInstallation() *domain.Installation {
	return &domain.Installation{
		TeamID:      "T123",
		TeamName:    "Acme",
		BotToken:    "xoxb-test",
		BotUserID:   "U456",
		Scopes:      []string{"links:read", "links:write"},
		InstalledAt: time.Unix(1700000000, 0),
	}
}

func TestInstallationStore_SaveAndFind(t *testing.T) {
	store := newTestInstallationStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testInstallation()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Find(ctx, "T123")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got.TeamName != "Acme" || got.BotToken != "xoxb-test" || got.BotUserID != "U456" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Scopes) != 2 || got.Scopes[0] != "links:read" {
		t.Errorf("Scopes = %v", got.Scopes)
	}
	if !got.InstalledAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("InstalledAt = %v", got.InstalledAt)
	}
}

func TestInstallationStore_SaveReplaces(t *testing.T) {
	store := newTestInstallationStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testInstallation()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	updated := testInstallation()
	updated.BotToken = "xoxb-rotated"
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Find(ctx, "T123")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got.BotToken != "xoxb-rotated" {
		t.Errorf("BotToken = %q, want the rotated token", got.BotToken)
	}
}

func TestInstallationStore_FindNotFound(t *testing.T) {
	store := newTestInstallationStore(t)

	_, err := store.Find(context.Background(), "T999")
	if !errors.Is(err, domain.ErrInstallationNotFound) {
		t.Errorf("Find() error = %v, want ErrInstallationNotFound", err)
	}
}

func TestInstallationStore_Delete(t *testing.T) {
	store := newTestInstallationStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testInstallation()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Delete(ctx, "T123"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Find(ctx, "T123"); !errors.Is(err, domain.ErrInstallationNotFound) {
		t.Errorf("Find() after delete = %v, want ErrInstallationNotFound", err)
	}
}

func TestAllowList(t *testing.T) {
	tests := []struct {
		name       string
		workspaces []string
		workspace  string
		want       bool
	}{
		{"empty list allows all", nil, "Anybody", true},
		{"listed workspace approved", []string{"Acme"}, "Acme", true},
		{"unlisted workspace rejected", []string{"Acme"}, "Evil Corp", false},
		{"blank entries ignored", []string{"", "  "}, "Anybody", true},
		{"whitespace trimmed", []string{" Acme "}, "Acme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewAllowList(tt.workspaces)
			if got := list.IsApproved(tt.workspace); got != tt.want {
				t.Errorf("IsApproved(%q) = %v, want %v", tt.workspace, got, tt.want)
			}
		})
	}
}

func TestValidatedInstallationStore_ApprovedWorkspace(t *testing.T) {
	inner := newTestInstallationStore(t)
	store := NewValidatedInstallationStore(inner, NewAllowList([]string{"Acme"}))
	ctx := context.Background()

	if err := store.Save(ctx, testInstallation()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := store.Find(ctx, "T123"); err != nil {
		t.Errorf("Find() failed: %v", err)
	}
}

func TestValidatedInstallationStore_RejectsUnapproved(t *testing.T) {
	inner := newTestInstallationStore(t)
	store := NewValidatedInstallationStore(inner, NewAllowList([]string{"Acme"}))
	ctx := context.Background()

	inst := testInstallation()
	inst.TeamName = "Evil Corp"

	err := store.Save(ctx, inst)
	if !errors.Is(err, domain.ErrWorkspaceNotApproved) {
		t.Fatalf("Save() error = %v, want ErrWorkspaceNotApproved", err)
	}
	if _, err := inner.Find(ctx, inst.TeamID); !errors.Is(err, domain.ErrInstallationNotFound) {
		t.Error("rejected installation must not be persisted")
	}
}

func TestValidatedInstallationStore_UnknownNameFallback(t *testing.T) {
	inner := newTestInstallationStore(t)
	store := NewValidatedInstallationStore(inner, NewAllowList([]string{"Acme"}))

	inst := testInstallation()
	inst.TeamName = ""

	err := store.Save(context.Background(), inst)
	if !errors.Is(err, domain.ErrWorkspaceNotApproved) {
		t.Errorf("Save() error = %v, want ErrWorkspaceNotApproved", err)
	}
}
