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

CREATE TABLE IF NOT EXISTS checklists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	version    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_checklists_name ON checklists(name);

CREATE TABLE IF NOT EXISTS checklist_items (
	id            TEXT PRIMARY KEY,
	checklist_id  TEXT NOT NULL REFERENCES checklists(id),
	display_index INTEGER NOT NULL DEFAULT 0,
	display_text  TEXT NOT NULL,
	detail_text   TEXT NOT NULL DEFAULT '',
	link_text     TEXT NOT NULL DEFAULT '',
	link_uri      TEXT NOT NULL DEFAULT '',
	is_required   INTEGER NOT NULL DEFAULT 1 CHECK(is_required IN (0, 1)),
	tags          TEXT NOT NULL DEFAULT '[]',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(checklist_id, display_text)
);

CREATE INDEX IF NOT EXISTS idx_checklist_items_checklist_id
	ON checklist_items(checklist_id);

CREATE TABLE IF NOT EXISTS user_checklists (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	checklist_id TEXT NOT NULL REFERENCES checklists(id),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, checklist_id)
);

CREATE INDEX IF NOT EXISTS idx_user_checklists_checklist_id
	ON user_checklists(checklist_id);

CREATE TABLE IF NOT EXISTS user_checklist_items (
	id                TEXT PRIMARY KEY,
	user_checklist_id TEXT NOT NULL REFERENCES user_checklists(id),
	checklist_item_id TEXT NOT NULL REFERENCES checklist_items(id),
	user_id           TEXT NOT NULL,
	is_complete       INTEGER NOT NULL DEFAULT 0 CHECK(is_complete IN (0, 1)),
	UNIQUE(user_checklist_id, checklist_item_id)
);

CREATE INDEX IF NOT EXISTS idx_user_checklist_items_user_checklist_id
	ON user_checklist_items(user_checklist_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_user_checklist_items_checklist_item_id
	ON user_checklist_items(checklist_item_id);

CREATE INDEX IF NOT EXISTS idx_checklist_items_display_index
	ON checklist_items(checklist_id, display_index);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
