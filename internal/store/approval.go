package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/iconidentify/skyfurl/internal/domain"
)

// ApprovalPolicy decides whether a workspace may install the app.
type ApprovalPolicy interface {
	IsApproved(workspaceName string) bool
}

// AllowList is an ApprovalPolicy backed by a configured list of workspace
// names. An empty list allows every workspace.
type AllowList struct {
	approved map[string]struct{}
}

// NewAllowList builds an allow list from configured workspace names, ignoring
// blank entries.
func NewAllowList(workspaces []string) *AllowList {
	approved := make(map[string]struct{}, len(workspaces))
	for _, ws := range workspaces {
		ws = strings.TrimSpace(ws)
		if ws != "" {
			approved[ws] = struct{}{}
		}
	}
	return &AllowList{approved: approved}
}

// IsApproved reports whether the workspace may install the app.
func (l *AllowList) IsApproved(workspaceName string) bool {
	if len(l.approved) == 0 {
		return true
	}
	_, ok := l.approved[workspaceName]
	return ok
}

// ValidatedInstallationStore checks workspace approval before persisting an
// installation. Lookups and deletes pass through unvalidated.
type ValidatedInstallationStore struct {
	*InstallationStore
	policy ApprovalPolicy
}

// NewValidatedInstallationStore composes an approval policy in front of the
// installation store.
func NewValidatedInstallationStore(inner *InstallationStore, policy ApprovalPolicy) *ValidatedInstallationStore {
	return &ValidatedInstallationStore{
		InstallationStore: inner,
		policy:            policy,
	}
}

// Save persists the installation after validating workspace approval.
func (s *ValidatedInstallationStore) Save(ctx context.Context, inst *domain.Installation) error {
	name := inst.TeamName
	if name == "" {
		name = "Unknown Workspace"
	}

	if !s.policy.IsApproved(name) {
		return fmt.Errorf("workspace %q: %w", name, domain.ErrWorkspaceNotApproved)
	}

	return s.InstallationStore.Save(ctx, inst)
}
