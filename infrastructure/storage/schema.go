package storage

// schemaStatement is one DDL statement and the table it belongs to, so a
// failure can be reported against the table.
type schemaStatement struct {
	table string
	sql   string
}

var schemaSQLite = []schemaStatement{
	{"criteria", `CREATE TABLE IF NOT EXISTS criteria (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`},
	{"indicators", `CREATE TABLE IF NOT EXISTS indicators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		criterion_id INTEGER NOT NULL REFERENCES criteria(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		scale TEXT NOT NULL DEFAULT 'standard'
	)`},
	{"indicators", `CREATE INDEX IF NOT EXISTS idx_indicators_criterion ON indicators(criterion_id)`},
	{"students", `CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		group_name TEXT NOT NULL DEFAULT ''
	)`},
	{"evaluations", `CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER REFERENCES students(id),
		title TEXT NOT NULL,
		eval_date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`},
	{"scores", `CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL REFERENCES students(id),
		evaluation_id INTEGER NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
		indicator_id INTEGER NOT NULL REFERENCES indicators(id),
		value REAL NOT NULL,
		UNIQUE (evaluation_id, indicator_id)
	)`},
	{"scores", `CREATE INDEX IF NOT EXISTS idx_scores_student ON scores(student_id)`},
}

var schemaPostgres = []schemaStatement{
	{"criteria", `CREATE TABLE IF NOT EXISTS criteria (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`},
	{"indicators", `CREATE TABLE IF NOT EXISTS indicators (
		id BIGSERIAL PRIMARY KEY,
		criterion_id BIGINT NOT NULL REFERENCES criteria(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		scale TEXT NOT NULL DEFAULT 'standard'
	)`},
	{"indicators", `CREATE INDEX IF NOT EXISTS idx_indicators_criterion ON indicators(criterion_id)`},
	{"students", `CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		group_name TEXT NOT NULL DEFAULT ''
	)`},
	{"evaluations", `CREATE TABLE IF NOT EXISTS evaluations (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT REFERENCES students(id),
		title TEXT NOT NULL,
		eval_date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`},
	{"scores", `CREATE TABLE IF NOT EXISTS scores (
		id BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES students(id),
		evaluation_id BIGINT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
		indicator_id BIGINT NOT NULL REFERENCES indicators(id),
		value DOUBLE PRECISION NOT NULL,
		UNIQUE (evaluation_id, indicator_id)
	)`},
	{"scores", `CREATE INDEX IF NOT EXISTS idx_scores_student ON scores(student_id)`},
}

func schemaFor(driver Driver) []schemaStatement {
	if driver == DriverPostgres {
		return schemaPostgres
	}
	return schemaSQLite
}
