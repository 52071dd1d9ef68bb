package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/models/store"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb"
)

var ErrNotFound = errors.New("workflow not found")

type Store interface {
	ListByAccount(ctx context.Context, accountID string) ([]*store.Workflow, error)
	Get(ctx context.Context, workflowID string) (*store.Workflow, error)
	// UpdateSteps replaces the live step sequence after a step has been
	// terminally consumed.
	UpdateSteps(ctx context.Context, workflowID string, flowPath string) error
	// SaveScheduledRemainder persists the post-wait remainder and the
	// resumable marker in one write, clearing the live sequence.
	SaveScheduledRemainder(ctx context.Context, workflowID string, remainder string) error
	// TakeScheduledRemainder reads and clears the remainder so a
	// duplicate resumption callback finds nothing to run.
	TakeScheduledRemainder(ctx context.Context, workflowID string) (string, bool, error)
	CreateWorkflow(ctx context.Context, workflow *store.Workflow) error
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{db: db}, nil
}

const selectWorkflow = `
	SELECT id, account_id, name, flow_path, scheduled_path, resumable,
		discord_webhook_url, discord_template,
		slack_access_token, slack_channels, slack_template,
		notion_access_token, notion_db_id, notion_template,
		email_recipient, email_subject, email_template,
		created_at, updated_at
	FROM workflows
`

func (s *defaultStore) ListByAccount(ctx context.Context, accountID string) ([]*store.Workflow, error) {
	rows, err := duckdb.Executor(ctx, s.db).QueryContext(ctx,
		selectWorkflow+` WHERE account_id = ? ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*store.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows.Scan)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *defaultStore) Get(ctx context.Context, workflowID string) (*store.Workflow, error) {
	row := duckdb.Executor(ctx, s.db).QueryRowContext(ctx, selectWorkflow+` WHERE id = ?`, workflowID)
	wf, err := scanWorkflow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wf, err
}

func scanWorkflow(scan func(...any) error) (*store.Workflow, error) {
	var w store.Workflow
	err := scan(
		&w.ID, &w.AccountID, &w.Name, &w.FlowPath, &w.ScheduledPath, &w.Resumable,
		&w.DiscordWebhookURL, &w.DiscordTemplate,
		&w.SlackAccessToken, &w.SlackChannels, &w.SlackTemplate,
		&w.NotionAccessToken, &w.NotionDatabaseID, &w.NotionTemplate,
		&w.EmailRecipient, &w.EmailSubject, &w.EmailTemplate,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}
	return &w, nil
}

func (s *defaultStore) UpdateSteps(ctx context.Context, workflowID string, flowPath string) error {
	res, err := duckdb.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE workflows
		SET flow_path = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, flowPath, workflowID)
	if err != nil {
		return fmt.Errorf("update steps: %w", err)
	}
	return ensureFound(res, workflowID)
}

func (s *defaultStore) SaveScheduledRemainder(ctx context.Context, workflowID string, remainder string) error {
	res, err := duckdb.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE workflows
		SET flow_path = '[]', scheduled_path = ?, resumable = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, remainder, workflowID)
	if err != nil {
		return fmt.Errorf("save scheduled remainder: %w", err)
	}
	return ensureFound(res, workflowID)
}

func (s *defaultStore) TakeScheduledRemainder(ctx context.Context, workflowID string) (string, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("take scheduled remainder: %w", err)
	}
	defer tx.Rollback()

	ctxWithTx := duckdb.WithTransaction(ctx, tx)

	var remainder string
	var resumable bool
	err = duckdb.Executor(ctxWithTx, s.db).QueryRowContext(ctxWithTx, `
		SELECT scheduled_path, resumable FROM workflows WHERE id = ?`, workflowID).
		Scan(&remainder, &resumable)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("take scheduled remainder: %w", err)
	}

	if !resumable {
		return "", false, nil
	}

	_, err = duckdb.Executor(ctxWithTx, s.db).ExecContext(ctxWithTx, `
		UPDATE workflows
		SET scheduled_path = '', resumable = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, workflowID)
	if err != nil {
		return "", false, fmt.Errorf("clear scheduled remainder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("take scheduled remainder: commit: %w", err)
	}
	return remainder, true, nil
}

func (s *defaultStore) CreateWorkflow(ctx context.Context, workflow *store.Workflow) error {
	_, err := duckdb.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO workflows (
			id, account_id, name, flow_path, scheduled_path, resumable,
			discord_webhook_url, discord_template,
			slack_access_token, slack_channels, slack_template,
			notion_access_token, notion_db_id, notion_template,
			email_recipient, email_subject, email_template
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		workflow.ID, workflow.AccountID, workflow.Name,
		workflow.FlowPath, workflow.ScheduledPath, workflow.Resumable,
		workflow.DiscordWebhookURL, workflow.DiscordTemplate,
		workflow.SlackAccessToken, workflow.SlackChannels, workflow.SlackTemplate,
		workflow.NotionAccessToken, workflow.NotionDatabaseID, workflow.NotionTemplate,
		workflow.EmailRecipient, workflow.EmailSubject, workflow.EmailTemplate,
	)
	if err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

func ensureFound(res sql.Result, workflowID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, workflowID)
	}
	return nil
}
