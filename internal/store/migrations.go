package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create modules, hooks and module hooks",
		SQL: `
			CREATE TABLE modules (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				code        TEXT NOT NULL,
				title       TEXT NOT NULL DEFAULT '',
				version     TEXT NOT NULL DEFAULT '',
				active      INTEGER NOT NULL DEFAULT 0,
				position    INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_modules_code ON modules (code);

			CREATE TABLE hooks (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				code        TEXT NOT NULL,
				type        TEXT NOT NULL DEFAULT 'front',
				title       TEXT NOT NULL DEFAULT '',
				active      INTEGER NOT NULL DEFAULT 0,
				native      INTEGER NOT NULL DEFAULT 0,
				by_module   INTEGER NOT NULL DEFAULT 0,
				block       INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_hooks_code ON hooks (code);

			CREATE TABLE module_hooks (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				module_id      INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
				hook_id        INTEGER NOT NULL REFERENCES hooks(id) ON DELETE CASCADE,
				classname      TEXT NOT NULL,
				method         TEXT NOT NULL,
				active         INTEGER NOT NULL DEFAULT 0,
				module_active  INTEGER NOT NULL DEFAULT 0,
				hook_active    INTEGER NOT NULL DEFAULT 0,
				position       INTEGER NOT NULL DEFAULT 0,
				created_at     TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_module_hooks_hook ON module_hooks (hook_id, position);
			CREATE INDEX idx_module_hooks_module ON module_hooks (module_id);

			CREATE TABLE ignored_module_hooks (
				module_id   INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
				hook_id     INTEGER NOT NULL REFERENCES hooks(id) ON DELETE CASCADE,
				classname   TEXT NOT NULL,
				method      TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (module_id, hook_id, classname, method)
			);
		`,
	},
	{
		Version: 2,
		Name:    "create coupons",
		SQL: `
			CREATE TABLE coupons (
				code               TEXT PRIMARY KEY,
				service_id         TEXT NOT NULL,
				title              TEXT NOT NULL DEFAULT '',
				short_description  TEXT NOT NULL DEFAULT '',
				description        TEXT NOT NULL DEFAULT '',
				amount             REAL NOT NULL DEFAULT 0,
				cumulative         INTEGER NOT NULL DEFAULT 0,
				removing_postage   INTEGER NOT NULL DEFAULT 0,
				enabled            INTEGER NOT NULL DEFAULT 1,
				expires_at         TEXT,
				created_at         TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_coupons_service ON coupons (service_id);
		`,
	},
}
