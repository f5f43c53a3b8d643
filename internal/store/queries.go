package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

const (
	lessonColumns     = `id, class_id, subject_id, teacher_id, subgroup_id, lesson_date, starts_at, ends_at, status`
	assignmentColumns = `id, lesson_id, subject_id, class_id, teacher_id, subgroup_id, assignment_type, max_score, description, planned_for, created_at`
	gradeColumns      = `id, student_id, subject_id, class_id, teacher_id, lesson_id, assignment_id, subgroup_id, grade, grade_type, comment, created_at`
	attendanceColumns = `id, student_id, lesson_id, class_id, status, lesson_date, comment`
)

// SQLQueries implements Queries on top of any sqlx executor. Queries are
// written with ? placeholders and passed through the dialect converter.
type SQLQueries struct {
	ext  sqlx.ExtContext
	conv func(string) string
}

func NewSQLQueries(ext sqlx.ExtContext, conv func(string) string) *SQLQueries {
	if conv == nil {
		conv = func(q string) string { return q }
	}
	return &SQLQueries{ext: ext, conv: conv}
}

// where collects AND-ed conditions for list queries
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (q *SQLQueries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := sqlx.GetContext(ctx, q.ext, dest, q.conv(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *SQLQueries) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := q.ext.QueryRowxContext(ctx, q.conv(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (q *SQLQueries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.ext.ExecContext(ctx, q.conv(query), args...)
}

func (q *SQLQueries) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson models.Lesson
	ok, err := q.get(ctx, &lesson, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &lesson, nil
}

func (q *SQLQueries) ListLessons(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	var w where
	if filter.ID != 0 {
		w.add("id = ?", filter.ID)
	}
	if filter.ClassID != 0 {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.SubjectID != 0 {
		w.add("subject_id = ?", filter.SubjectID)
	}
	if filter.TeacherID != 0 {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.SubgroupID != nil {
		w.add("subgroup_id = ?", *filter.SubgroupID)
	}
	if filter.DateFrom != "" {
		w.add("lesson_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		w.add("lesson_date <= ?", filter.DateTo)
	}

	var lessons []models.Lesson
	query := `SELECT ` + lessonColumns + ` FROM lessons` + w.String() + ` ORDER BY lesson_date, starts_at, id`
	if err := sqlx.SelectContext(ctx, q.ext, &lessons, q.conv(query), w.args...); err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (q *SQLQueries) CreateLesson(ctx context.Context, l *models.Lesson) error {
	id, err := q.insertReturningID(ctx, `
		INSERT INTO lessons (class_id, subject_id, teacher_id, subgroup_id, lesson_date, starts_at, ends_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		l.ClassID, l.SubjectID, l.TeacherID, l.SubgroupID, l.Date, l.StartsAt, l.EndsAt, l.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	l.ID = id
	return nil
}

func (q *SQLQueries) UpdateLessonStatus(ctx context.Context, id int64, status models.LessonStatus) error {
	if _, err := q.exec(ctx, `UPDATE lessons SET status = ? WHERE id = ?`, status, id); err != nil {
		return fmt.Errorf("failed to update lesson status: %w", err)
	}
	return nil
}

func (q *SQLQueries) DeleteLesson(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM lessons WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (q *SQLQueries) CountLessonRefs(ctx context.Context, id int64) (LessonRefs, error) {
	var refs LessonRefs
	_, err := q.get(ctx, &refs, `
		SELECT
			(SELECT COUNT(*) FROM assignments WHERE lesson_id = ?) AS assignments,
			(SELECT COUNT(*) FROM grades WHERE lesson_id = ?) AS grades,
			(SELECT COUNT(*) FROM attendance WHERE lesson_id = ?) AS attendance`,
		id, id, id,
	)
	if err != nil {
		return LessonRefs{}, fmt.Errorf("failed to count lesson references: %w", err)
	}
	return refs, nil
}

func (q *SQLQueries) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	var a models.Assignment
	ok, err := q.get(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (q *SQLQueries) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var w where
	if filter.LessonID != 0 {
		w.add("lesson_id = ?", filter.LessonID)
	}
	if filter.ClassID != 0 {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.SubjectID != 0 {
		w.add("subject_id = ?", filter.SubjectID)
	}

	var assignments []models.Assignment
	query := `SELECT ` + assignmentColumns + ` FROM assignments` + w.String() + ` ORDER BY id`
	if err := sqlx.SelectContext(ctx, q.ext, &assignments, q.conv(query), w.args...); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (q *SQLQueries) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	id, err := q.insertReturningID(ctx, `
		INSERT INTO assignments (lesson_id, subject_id, class_id, teacher_id, subgroup_id,
			assignment_type, max_score, description, planned_for, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.LessonID, a.SubjectID, a.ClassID, a.TeacherID, a.SubgroupID,
		a.Type, a.MaxScore, a.Description, a.PlannedFor, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	a.ID = id
	return nil
}

func (q *SQLQueries) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	_, err := q.exec(ctx, `
		UPDATE assignments
		SET assignment_type = ?, max_score = ?, description = ?, planned_for = ?
		WHERE id = ?`,
		a.Type, a.MaxScore, a.Description, a.PlannedFor, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (q *SQLQueries) DeleteAssignment(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM assignments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

func (q *SQLQueries) GetGrade(ctx context.Context, id int64) (*models.Grade, error) {
	var g models.Grade
	ok, err := q.get(ctx, &g, `SELECT `+gradeColumns+` FROM grades WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (q *SQLQueries) FindGrade(ctx context.Context, studentID, assignmentID int64) (*models.Grade, error) {
	var g models.Grade
	ok, err := q.get(ctx, &g, `
		SELECT `+gradeColumns+`
		FROM grades
		WHERE student_id = ? AND assignment_id = ?
		ORDER BY id
		LIMIT 1`,
		studentID, assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find grade: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (q *SQLQueries) ListGrades(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	var w where
	if filter.ClassID != 0 {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.SubjectID != 0 {
		w.add("subject_id = ?", filter.SubjectID)
	}
	if filter.StudentID != 0 {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.LessonID != 0 {
		w.add("lesson_id = ?", filter.LessonID)
	}
	if filter.AssignmentID != 0 {
		w.add("assignment_id = ?", filter.AssignmentID)
	}

	var grades []models.Grade
	query := `SELECT ` + gradeColumns + ` FROM grades` + w.String() + ` ORDER BY id`
	if err := sqlx.SelectContext(ctx, q.ext, &grades, q.conv(query), w.args...); err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return grades, nil
}

func (q *SQLQueries) CreateGrade(ctx context.Context, g *models.Grade) error {
	id, err := q.insertReturningID(ctx, `
		INSERT INTO grades (student_id, subject_id, class_id, teacher_id, lesson_id, assignment_id,
			subgroup_id, grade, grade_type, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		g.StudentID, g.SubjectID, g.ClassID, g.TeacherID, g.LessonID, g.AssignmentID,
		g.SubgroupID, g.Value, g.GradeType, g.Comment, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create grade: %w", err)
	}
	g.ID = id
	return nil
}

func (q *SQLQueries) UpdateGrade(ctx context.Context, g *models.Grade) error {
	_, err := q.exec(ctx, `
		UPDATE grades
		SET grade = ?, grade_type = ?, comment = ?
		WHERE id = ?`,
		g.Value, g.GradeType, g.Comment, g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update grade: %w", err)
	}
	return nil
}

func (q *SQLQueries) DeleteGrade(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM grades WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete grade: %w", err)
	}
	return nil
}

func (q *SQLQueries) DeleteGradesByAssignment(ctx context.Context, assignmentID int64) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM grades WHERE assignment_id = ?`, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete grades of assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted grades: %w", err)
	}
	return n, nil
}

func (q *SQLQueries) UpsertAttendance(ctx context.Context, a *models.Attendance) error {
	id, err := q.insertReturningID(ctx, `
		INSERT INTO attendance (student_id, lesson_id, class_id, status, lesson_date, comment)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, lesson_id) DO UPDATE SET
			status = excluded.status,
			comment = excluded.comment,
			lesson_date = excluded.lesson_date
		RETURNING id`,
		a.StudentID, a.LessonID, a.ClassID, a.Status, a.Date, a.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance: %w", err)
	}
	a.ID = id
	return nil
}

func (q *SQLQueries) ListAttendance(ctx context.Context, lessonID int64) ([]models.Attendance, error) {
	var records []models.Attendance
	query := q.conv(`SELECT ` + attendanceColumns + ` FROM attendance WHERE lesson_id = ? ORDER BY student_id`)
	if err := sqlx.SelectContext(ctx, q.ext, &records, query, lessonID); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func (q *SQLQueries) GetClassSettings(ctx context.Context, classID int64) (*models.ClassSettings, error) {
	var cs models.ClassSettings
	ok, err := q.get(ctx, &cs, `SELECT class_id, grading_system FROM class_settings WHERE class_id = ?`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to get class settings: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &cs, nil
}

func (q *SQLQueries) SetClassSettings(ctx context.Context, cs models.ClassSettings) error {
	_, err := q.exec(ctx, `
		INSERT INTO class_settings (class_id, grading_system)
		VALUES (?, ?)
		ON CONFLICT (class_id) DO UPDATE SET grading_system = excluded.grading_system`,
		cs.ClassID, cs.GradingSystem,
	)
	if err != nil {
		return fmt.Errorf("failed to set class settings: %w", err)
	}
	return nil
}

func (q *SQLQueries) CreateSubgroup(ctx context.Context, sg *models.Subgroup) error {
	id, err := q.insertReturningID(ctx, `
		INSERT INTO subgroups (name, class_id, school_id)
		VALUES (?, ?, ?)
		RETURNING id`,
		sg.Name, sg.ClassID, sg.SchoolID,
	)
	if err != nil {
		return fmt.Errorf("failed to create subgroup: %w", err)
	}
	sg.ID = id
	return nil
}

func (q *SQLQueries) GetSubgroup(ctx context.Context, id int64) (*models.Subgroup, error) {
	var sg models.Subgroup
	ok, err := q.get(ctx, &sg, `SELECT id, name, class_id, school_id FROM subgroups WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get subgroup: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &sg, nil
}

func (q *SQLQueries) ListSubgroups(ctx context.Context, classID int64) ([]models.Subgroup, error) {
	var w where
	if classID != 0 {
		w.add("class_id = ?", classID)
	}

	var subgroups []models.Subgroup
	query := `SELECT id, name, class_id, school_id FROM subgroups` + w.String() + ` ORDER BY id`
	if err := sqlx.SelectContext(ctx, q.ext, &subgroups, q.conv(query), w.args...); err != nil {
		return nil, fmt.Errorf("failed to list subgroups: %w", err)
	}
	return subgroups, nil
}

func (q *SQLQueries) SetSubgroupMembers(ctx context.Context, subgroupID int64, studentIDs []int64) error {
	if _, err := q.exec(ctx, `DELETE FROM subgroup_members WHERE subgroup_id = ?`, subgroupID); err != nil {
		return fmt.Errorf("failed to clear subgroup members: %w", err)
	}
	for _, studentID := range studentIDs {
		_, err := q.exec(ctx, `
			INSERT INTO subgroup_members (subgroup_id, student_id)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING`,
			subgroupID, studentID,
		)
		if err != nil {
			return fmt.Errorf("failed to add subgroup member %d: %w", studentID, err)
		}
	}
	return nil
}

func (q *SQLQueries) ListSubgroupMembers(ctx context.Context, subgroupIDs []int64) ([]models.SubgroupMember, error) {
	if len(subgroupIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT subgroup_id, student_id
		FROM subgroup_members
		WHERE subgroup_id IN (?)
		ORDER BY subgroup_id, student_id`,
		subgroupIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build members query: %w", err)
	}

	var members []models.SubgroupMember
	if err := sqlx.SelectContext(ctx, q.ext, &members, q.conv(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list subgroup members: %w", err)
	}
	return members, nil
}
