package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const AccountsSchema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR NOT NULL PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		credits INTEGER NOT NULL DEFAULT 0,
		unlimited BOOLEAN NOT NULL DEFAULT FALSE,
		tier VARCHAR NOT NULL DEFAULT 'Free',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const ResourceMappingsSchema = `
	CREATE TABLE IF NOT EXISTS resource_mappings (
		resource_id VARCHAR NOT NULL PRIMARY KEY,
		account_id VARCHAR NOT NULL
	);
`

const WorkflowsSchema = `
	CREATE TABLE IF NOT EXISTS workflows (
		id VARCHAR NOT NULL PRIMARY KEY,
		account_id VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		flow_path VARCHAR NOT NULL DEFAULT '[]',
		scheduled_path VARCHAR NOT NULL DEFAULT '',
		resumable BOOLEAN NOT NULL DEFAULT FALSE,
		discord_webhook_url VARCHAR NOT NULL DEFAULT '',
		discord_template VARCHAR NOT NULL DEFAULT '',
		slack_access_token VARCHAR NOT NULL DEFAULT '',
		slack_channels VARCHAR NOT NULL DEFAULT '',
		slack_template VARCHAR NOT NULL DEFAULT '',
		notion_access_token VARCHAR NOT NULL DEFAULT '',
		notion_db_id VARCHAR NOT NULL DEFAULT '',
		notion_template VARCHAR NOT NULL DEFAULT '',
		email_recipient VARCHAR NOT NULL DEFAULT '',
		email_subject VARCHAR NOT NULL DEFAULT '',
		email_template VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var bootQueries = []string{
	AccountsSchema,
	ResourceMappingsSchema,
	WorkflowsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
