package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full database schema.
const schema = `
CREATE SCHEMA IF NOT EXISTS lostlink;

CREATE TABLE IF NOT EXISTS lostlink.users (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    email           TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT 'USER',
    register_number TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lostlink.items (
    id                        TEXT PRIMARY KEY,
    reference_id              TEXT NOT NULL,
    user_id                   TEXT NOT NULL REFERENCES lostlink.users(id),
    type                      TEXT NOT NULL,
    category                  TEXT NOT NULL,
    description               TEXT NOT NULL DEFAULT '',
    location                  TEXT NOT NULL DEFAULT '',
    status                    TEXT NOT NULL,
    image_key                 TEXT,
    storage_location          TEXT,
    admin_remarks             TEXT,
    verified_by               TEXT,
    verified_by_name          TEXT,
    verified_at               TIMESTAMPTZ,
    handed_over_by            TEXT,
    handed_over_by_name       TEXT,
    handed_over_to_student_id TEXT,
    handed_over_at            TIMESTAMPTZ,
    linked_item_id            TEXT,
    reported_at               TIMESTAMPTZ NOT NULL,
    created_at                TIMESTAMPTZ NOT NULL,
    updated_at                TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_type_status ON lostlink.items(type, status);
CREATE INDEX IF NOT EXISTS idx_items_user ON lostlink.items(user_id);

CREATE TABLE IF NOT EXISTS lostlink.claims (
    id                   TEXT PRIMARY KEY,
    reference_id         TEXT NOT NULL,
    item_id              TEXT NOT NULL REFERENCES lostlink.items(id),
    claimant_id          TEXT NOT NULL REFERENCES lostlink.users(id),
    verification_details TEXT NOT NULL DEFAULT '',
    proof_key            TEXT,
    status               TEXT NOT NULL DEFAULT 'PENDING',
    admin_remarks        TEXT,
    decided_by           TEXT,
    decided_at           TIMESTAMPTZ,
    submitted_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_item ON lostlink.claims(item_id);
CREATE INDEX IF NOT EXISTS idx_claims_claimant ON lostlink.claims(claimant_id);

CREATE TABLE IF NOT EXISTS lostlink.audit_logs (
    id          TEXT PRIMARY KEY,
    admin_id    TEXT NOT NULL,
    admin_name  TEXT NOT NULL,
    action      TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_id   TEXT NOT NULL,
    details     JSONB,
    timestamp   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_admin_action ON lostlink.audit_logs(admin_id, action);

CREATE TABLE IF NOT EXISTS lostlink.notifications (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    category   TEXT NOT NULL,
    related_id TEXT,
    read       BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON lostlink.notifications(user_id, created_at DESC);
`

// EnsureSchema creates the schema, tables and indexes if they don't
// already exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
