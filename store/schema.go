package store

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(50) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(100) NOT NULL,
		genre       VARCHAR(50) NOT NULL,
		description TEXT NOT NULL
	)`,
}

// SQLite compares TEXT with the BINARY collation, so the unique index on
// username is case-sensitive like the Postgres one.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		genre       TEXT NOT NULL,
		description TEXT NOT NULL
	)`,
}
