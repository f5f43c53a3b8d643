package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

// Queries is the set of reads and writes available inside a transaction.
// Single-row getters return nil, nil when the row does not exist.
type Queries interface {
	GetLesson(ctx context.Context, id int64) (*models.Lesson, error)
	ListLessons(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateLessonStatus(ctx context.Context, id int64, status models.LessonStatus) error
	DeleteLesson(ctx context.Context, id int64) error
	CountLessonRefs(ctx context.Context, id int64) (LessonRefs, error)

	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error

	GetGrade(ctx context.Context, id int64) (*models.Grade, error)
	FindGrade(ctx context.Context, studentID, assignmentID int64) (*models.Grade, error)
	ListGrades(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
	CreateGrade(ctx context.Context, g *models.Grade) error
	UpdateGrade(ctx context.Context, g *models.Grade) error
	DeleteGrade(ctx context.Context, id int64) error
	DeleteGradesByAssignment(ctx context.Context, assignmentID int64) (int64, error)

	UpsertAttendance(ctx context.Context, a *models.Attendance) error
	ListAttendance(ctx context.Context, lessonID int64) ([]models.Attendance, error)

	GetClassSettings(ctx context.Context, classID int64) (*models.ClassSettings, error)
	SetClassSettings(ctx context.Context, cs models.ClassSettings) error

	CreateSubgroup(ctx context.Context, sg *models.Subgroup) error
	GetSubgroup(ctx context.Context, id int64) (*models.Subgroup, error)
	ListSubgroups(ctx context.Context, classID int64) ([]models.Subgroup, error)
	SetSubgroupMembers(ctx context.Context, subgroupID int64, studentIDs []int64) error
	ListSubgroupMembers(ctx context.Context, subgroupIDs []int64) ([]models.SubgroupMember, error)
}

type JournalStore interface {
	Close() error
	ApplyMigrations(dir string) error

	// InTx runs fn inside one transaction. A read-only transaction sees a
	// single consistent snapshot. fn's error rolls everything back.
	InTx(ctx context.Context, readOnly bool, fn func(q Queries) error) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
	// TranslateSQL rewrites Postgres migrations into the local dialect
	TranslateSQL func(string) string
	// ReadOnlyTx is used for read-only transactions when the driver honours it
	ReadOnlyTx *sql.TxOptions
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order
func (s *BaseStore) ApplyMigrations(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		query := string(content)
		if s.TranslateSQL != nil {
			query = s.TranslateSQL(query)
		}

		if _, err := s.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) InTx(ctx context.Context, readOnly bool, fn func(q Queries) error) error {
	var opts *sql.TxOptions
	if readOnly {
		opts = s.ReadOnlyTx
	}

	tx, err := s.DB.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(NewSQLQueries(tx, s.Converter)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
