package store

import "errors"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeMemory   DatabaseType = "memory"
)

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
}

// LessonRefs counts the rows that pin a lesson in place.
type LessonRefs struct {
	Assignments int64 `db:"assignments"`
	Grades      int64 `db:"grades"`
	Attendance  int64 `db:"attendance"`
}

func (r LessonRefs) Total() int64 {
	return r.Assignments + r.Grades + r.Attendance
}

// ErrReadOnly is returned by writes attempted inside a read-only transaction.
var ErrReadOnly = errors.New("write in read-only transaction")
