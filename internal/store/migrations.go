package store

type migration struct {
	name string
	sql  string
}

// migrations run in order; the schema version is the index of the last
// applied entry plus one. Append only.
var migrations = []migration{
	{
		name: "cache entries",
		sql: `
			CREATE TABLE cache_entries (
				key         TEXT PRIMARY KEY,
				value       BLOB NOT NULL,
				expires_at  INTEGER NOT NULL DEFAULT 0,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX idx_cache_expires ON cache_entries (expires_at);
		`,
	},
	{
		name: "facility lookup log",
		sql: `
			CREATE TABLE lookups (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				tool        TEXT NOT NULL,
				query       TEXT NOT NULL,
				status      TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX idx_lookups_tool ON lookups (tool, id);
		`,
	},
}
