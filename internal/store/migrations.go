package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS identities (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	imap_username TEXT NOT NULL DEFAULT '',
	name          TEXT NOT NULL DEFAULT '',
	reply_to      TEXT NOT NULL DEFAULT '',
	signature     TEXT NOT NULL DEFAULT '',
	is_default    INTEGER NOT NULL DEFAULT 1 CHECK(is_default IN (0, 1)),
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_email ON identities(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
