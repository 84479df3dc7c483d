package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:academico.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/academico?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	schema := schemaCommon
	if driver == DriverSQLite {
		schema = "PRAGMA foreign_keys=ON;\n" + schema + schemaAuditSQLite
	} else {
		schema += schemaAuditPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Config payloads are stored as JSON documents; the engine only ever reads
// whole snapshots per institution. Fact tables are relational with natural
// keys so derived-grade upserts stay idempotent.
const schemaCommon = `
CREATE TABLE IF NOT EXISTS grading_configs (
  institution_id TEXT PRIMARY KEY,
  config_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS achievement_configs (
  institution_id TEXT PRIMARY KEY,
  config_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
  id TEXT PRIMARY KEY,
  institution_id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  group_id TEXT NOT NULL,
  year INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_subjects (
  group_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  PRIMARY KEY (group_id, subject_id)
);

CREATE TABLE IF NOT EXISTS activities (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  dimension_id TEXT NOT NULL,
  period INTEGER NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_scores (
  enrollment_id TEXT NOT NULL,
  activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
  score REAL,
  PRIMARY KEY (enrollment_id, activity_id)
);

CREATE TABLE IF NOT EXISTS period_grades (
  enrollment_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  period INTEGER NOT NULL,
  grade REAL NOT NULL,
  level TEXT NOT NULL,
  PRIMARY KEY (enrollment_id, subject_id, period)
);

CREATE TABLE IF NOT EXISTS annual_grades (
  enrollment_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  year INTEGER NOT NULL,
  grade REAL NOT NULL,
  level TEXT NOT NULL,
  PRIMARY KEY (enrollment_id, subject_id, year)
);

CREATE TABLE IF NOT EXISTS recoveries (
  id TEXT PRIMARY KEY,
  enrollment_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  target TEXT NOT NULL,
  period INTEGER NOT NULL,
  score REAL NOT NULL,
  submitted_at INTEGER NOT NULL,
  UNIQUE (enrollment_id, subject_id, target, period)
);

CREATE TABLE IF NOT EXISTS achievements (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  period INTEGER NOT NULL,
  order_number INTEGER NOT NULL,
  description TEXT NOT NULL,
  is_promotional INTEGER NOT NULL DEFAULT 0,
  UNIQUE (assignment_id, period, order_number)
);

CREATE TABLE IF NOT EXISTS student_achievements (
  id TEXT PRIMARY KEY,
  enrollment_id TEXT NOT NULL,
  achievement_id TEXT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
  grade REAL NOT NULL DEFAULT 0,
  level TEXT NOT NULL DEFAULT '',
  suggested_text TEXT NOT NULL DEFAULT '',
  suggested_judgment TEXT NOT NULL DEFAULT '',
  approved_text TEXT NOT NULL DEFAULT '',
  approved_judgment TEXT NOT NULL DEFAULT '',
  text_approved INTEGER NOT NULL DEFAULT 0,
  judgment_approved INTEGER NOT NULL DEFAULT 0,
  approved_by TEXT NOT NULL DEFAULT '',
  approved_at INTEGER,
  UNIQUE (enrollment_id, achievement_id)
);

CREATE TABLE IF NOT EXISTS attendance_summaries (
  enrollment_id TEXT NOT NULL,
  year INTEGER NOT NULL,
  present INTEGER NOT NULL DEFAULT 0,
  late INTEGER NOT NULL DEFAULT 0,
  absent INTEGER NOT NULL DEFAULT 0,
  total_days INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (enrollment_id, year)
);
`

// The audit log key column auto-assigns; the two drivers spell that
// differently.
const schemaAuditSQLite = `
CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  actor TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaAuditPostgres = `
CREATE TABLE IF NOT EXISTS audit_log (
  id BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  actor TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
