package repository

// Schema definitions for the Shrike database.
// Compatible with both SQLite and PostgreSQL.

const schemaMessages = `
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    source TEXT NOT NULL,
    sender TEXT NOT NULL,
    text TEXT NOT NULL,
    received_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_tenant ON messages(tenant_id);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(tenant_id, sender);
CREATE INDEX IF NOT EXISTS idx_messages_received ON messages(tenant_id, received_at);
`

const schemaVerdicts = `
CREATE TABLE IF NOT EXISTS verdicts (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    sender TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    score INTEGER NOT NULL,
    level TEXT NOT NULL,
    reasons TEXT NOT NULL,
    primary_url TEXT,
    primary_domain TEXT,
    primary_brand TEXT,
    payment TEXT,
    notified INTEGER NOT NULL DEFAULT 0,
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verdicts_tenant ON verdicts(tenant_id);
CREATE INDEX IF NOT EXISTS idx_verdicts_message ON verdicts(tenant_id, message_id);
CREATE INDEX IF NOT EXISTS idx_verdicts_sender ON verdicts(tenant_id, sender, timestamp);
CREATE INDEX IF NOT EXISTS idx_verdicts_level ON verdicts(tenant_id, level);
`

// schemaRuleSets keeps every installed rule-set version per tenant. The
// highest version is the active one; the one below it serves rollback.
const schemaRuleSets = `
CREATE TABLE IF NOT EXISTS rulesets (
    tenant_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    published_at TEXT NOT NULL,
    document TEXT NOT NULL,
    installed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, version)
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaMessages,
		schemaVerdicts,
		schemaRuleSets,
	}
}
