package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  role          TEXT        NOT NULL DEFAULT 'USER',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id     UUID        NOT NULL REFERENCES users (id),
  filename     TEXT        NOT NULL,
  content_type TEXT        NOT NULL,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents (owner_id);`,
	},
	{
		Name: "create_table_document_versions",
		SQL: `CREATE TABLE IF NOT EXISTS document_versions (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id    UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  version_number INT         NOT NULL CHECK (version_number >= 1),
  filename       TEXT        NOT NULL,
  content_type   TEXT        NOT NULL,
  size           BIGINT      NOT NULL CHECK (size >= 0),
  storage_path   TEXT        NOT NULL UNIQUE,
  checksum       TEXT        NOT NULL DEFAULT '',
  uploaded_by    UUID        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, version_number)
);`,
	},
	{
		Name: "create_table_document_permissions",
		SQL: `CREATE TABLE IF NOT EXISTS document_permissions (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  user_id     UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  capability  TEXT        NOT NULL,
  granted_by  UUID        NOT NULL,
  granted_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, user_id, capability)
);`,
	},
	{
		Name: "create_table_download_tokens",
		SQL: `CREATE TABLE IF NOT EXISTS download_tokens (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  version_id  UUID        NOT NULL REFERENCES document_versions (id) ON DELETE CASCADE,
  token       TEXT        NOT NULL UNIQUE,
  expires_at  TIMESTAMPTZ NOT NULL,
  used_at     TIMESTAMPTZ,
  created_by  UUID        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_download_tokens_expires_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_download_tokens_expires_at ON download_tokens (expires_at);`,
	},
	{
		Name: "create_table_document_metadata",
		SQL: `CREATE TABLE IF NOT EXISTS document_metadata (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  key         TEXT        NOT NULL,
  value       TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, key)
);`,
	},
	{
		// No FK on document_id: the audit trail outlives its document.
		Name: "create_table_document_audit",
		SQL: `CREATE TABLE IF NOT EXISTS document_audit (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL,
  action      TEXT        NOT NULL,
  actor_id    UUID        NOT NULL,
  details     JSONB       NOT NULL DEFAULT '{}',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_document_audit_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_audit_document_id ON document_audit (document_id);`,
	},
}

// EnsureMigrated runs the schema steps when the sentinel table is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.documents') IS NOT NULL").Scan(&exists); err != nil {
		return fmt.Errorf("check sentinel table: %w", err)
	}
	if exists {
		log.Info("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("took", time.Since(stepStart)))
	}

	log.Info("migration complete", zap.Duration("took", time.Since(start)))
	return nil
}
