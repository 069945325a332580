package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/skyfurl/internal/domain"
)

// InstallationStore persists chat-platform OAuth installation records in
// SQLite.
type InstallationStore struct {
	db *sql.DB
}

// NewInstallationStore opens (or creates) the SQLite database at path and
// ensures the schema exists. The caller should Close it when done.
func NewInstallationStore(path string) (*InstallationStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS installations (
			team_id      TEXT PRIMARY KEY,
			team_name    TEXT,
			bot_token    TEXT NOT NULL,
			bot_user_id  TEXT,
			scopes       TEXT,
			installed_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_installations_team_name ON installations(team_name);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &InstallationStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *InstallationStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the installation record for a workspace.
func (s *InstallationStore) Save(ctx context.Context, inst *domain.Installation) error {
	scopes, err := json.Marshal(inst.Scopes)
	if err != nil {
		return fmt.Errorf("marshal scopes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO installations
			(team_id, team_name, bot_token, bot_user_id, scopes, installed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inst.TeamID,
		inst.TeamName,
		inst.BotToken,
		inst.BotUserID,
		string(scopes),
		inst.InstalledAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save installation: %w", err)
	}
	return nil
}

// Find returns the installation for a workspace, or domain.ErrInstallationNotFound.
func (s *InstallationStore) Find(ctx context.Context, teamID string) (*domain.Installation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT team_id, team_name, bot_token, bot_user_id, scopes, installed_at
		FROM installations
		WHERE team_id = ?`,
		teamID,
	)

	var inst domain.Installation
	var scopes string
	var installedAt int64
	if err := row.Scan(&inst.TeamID, &inst.TeamName, &inst.BotToken, &inst.BotUserID, &scopes, &installedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrInstallationNotFound
		}
		return nil, fmt.Errorf("find installation: %w", err)
	}

	if scopes != "" {
		if err := json.Unmarshal([]byte(scopes), &inst.Scopes); err != nil {
			return nil, fmt.Errorf("unmarshal scopes: %w", err)
		}
	}
	inst.InstalledAt = time.Unix(installedAt, 0)

	return &inst, nil
}

// Delete removes the installation record for a workspace.
func (s *InstallationStore) Delete(ctx context.Context, teamID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM installations WHERE team_id = ?`, teamID)
	if err != nil {
		return fmt.Errorf("delete installation: %w", err)
	}
	return nil
}
