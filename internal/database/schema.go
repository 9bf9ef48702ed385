package database

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_info (
	username  TEXT PRIMARY KEY REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	full_name TEXT NOT NULL DEFAULT '',
	location  TEXT,
	email     TEXT,
	phone     TEXT,
	linkedin  TEXT,
	github    TEXT
);

CREATE TABLE IF NOT EXISTS documents (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_name TEXT NOT NULL,
	owner         TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	created_on    DATETIME NOT NULL,
	last_updated  DATETIME,
	is_master     BOOLEAN NOT NULL DEFAULT 0,
	is_template   BOOLEAN NOT NULL DEFAULT 0,
	is_locked     BOOLEAN NOT NULL DEFAULT 0,
	UNIQUE(owner, document_name)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_one_master ON documents(owner) WHERE is_master = 1;

CREATE TABLE IF NOT EXISTS sections (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	section_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS educations (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	owner             TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	school            TEXT NOT NULL,
	location          TEXT NOT NULL,
	start_date        DATE NOT NULL,
	end_date          DATE NOT NULL,
	degree            TEXT NOT NULL,
	gpa               TEXT,
	awards_and_honors TEXT,
	activities        TEXT
);

CREATE TABLE IF NOT EXISTS experiences (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	owner        TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	title        TEXT NOT NULL,
	organization TEXT NOT NULL,
	location     TEXT NOT NULL,
	start_date   DATE NOT NULL,
	end_date     DATE
);

CREATE TABLE IF NOT EXISTS text_snippets (
	id      INTEGER NOT NULL,
	version DATETIME NOT NULL,
	owner   TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	parent  DATETIME,
	type    TEXT NOT NULL,
	content TEXT NOT NULL,
	PRIMARY KEY (id, version)
);

CREATE TABLE IF NOT EXISTS skills (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	owner                TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE ON UPDATE CASCADE,
	name                 TEXT NOT NULL,
	text_snippet_id      INTEGER,
	text_snippet_version DATETIME,
	FOREIGN KEY (text_snippet_id, text_snippet_version)
		REFERENCES text_snippets(id, version) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS documents_x_sections (
	document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	section_id  INTEGER NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	PRIMARY KEY (document_id, section_id),
	UNIQUE (document_id, position)
);

CREATE TABLE IF NOT EXISTS documents_x_educations (
	document_id  INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	education_id INTEGER NOT NULL REFERENCES educations(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	PRIMARY KEY (document_id, education_id),
	UNIQUE (document_id, position)
);

CREATE TABLE IF NOT EXISTS documents_x_experiences (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id   INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	experience_id INTEGER NOT NULL REFERENCES experiences(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	UNIQUE (document_id, experience_id),
	UNIQUE (document_id, position)
);

CREATE TABLE IF NOT EXISTS documents_x_skills (
	document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	skill_id    INTEGER NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	PRIMARY KEY (document_id, skill_id),
	UNIQUE (document_id, position)
);

CREATE TABLE IF NOT EXISTS experiences_x_text_snippets (
	document_x_experience_id INTEGER NOT NULL REFERENCES documents_x_experiences(id) ON DELETE CASCADE,
	text_snippet_id          INTEGER NOT NULL,
	text_snippet_version     DATETIME NOT NULL,
	position                 INTEGER NOT NULL,
	PRIMARY KEY (document_x_experience_id, text_snippet_id),
	UNIQUE (document_x_experience_id, position),
	FOREIGN KEY (text_snippet_id, text_snippet_version)
		REFERENCES text_snippets(id, version) ON DELETE CASCADE
);
`
