package models

import "time"

// Grade is a single score awarded to a student. CreatedAt is unix seconds;
// nil marks legacy rows that were imported without a timestamp.
type Grade struct {
	ID           int64   `db:"id" json:"id"`
	StudentID    int64   `db:"student_id" json:"studentId"`
	SubjectID    int64   `db:"subject_id" json:"subjectId"`
	ClassID      int64   `db:"class_id" json:"classId"`
	TeacherID    int64   `db:"teacher_id" json:"teacherId"`
	LessonID     *int64  `db:"lesson_id" json:"scheduleId,omitempty"`
	AssignmentID *int64  `db:"assignment_id" json:"assignmentId,omitempty"`
	SubgroupID   *int64  `db:"subgroup_id" json:"subgroupId,omitempty"`
	Value        float64 `db:"grade" json:"grade"`
	GradeType    string  `db:"grade_type" json:"gradeType"`
	Comment      string  `db:"comment" json:"comment"`
	CreatedAt    *int64  `db:"created_at" json:"createdAt,omitempty"`
}

func (g *Grade) CreatedTime() (time.Time, bool) {
	if g.CreatedAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*g.CreatedAt, 0), true
}

type NewGrade struct {
	StudentID    int64   `json:"studentId" validate:"required,gt=0"`
	SubjectID    int64   `json:"subjectId" validate:"required,gt=0"`
	ClassID      int64   `json:"classId" validate:"required,gt=0"`
	TeacherID    int64   `json:"teacherId" validate:"required,gt=0"`
	Value        float64 `json:"grade"`
	GradeType    string  `json:"gradeType" validate:"max=64"`
	Comment      string  `json:"comment" validate:"max=2000"`
	LessonID     *int64  `json:"scheduleId" validate:"omitempty,gt=0"`
	AssignmentID *int64  `json:"assignmentId" validate:"omitempty,gt=0"`
	SubgroupID   *int64  `json:"subgroupId" validate:"omitempty,gt=0"`
}

func (ng *NewGrade) Validate() error {
	ng.GradeType = CleanString(ng.GradeType)
	ng.Comment = CleanString(ng.Comment)
	return ValidateStruct(ng)
}

type UpdateGrade struct {
	Value     *float64 `json:"grade"`
	GradeType *string  `json:"gradeType" validate:"omitempty,max=64"`
	Comment   *string  `json:"comment" validate:"omitempty,max=2000"`
}

func (ug *UpdateGrade) Validate() error {
	return ValidateStruct(ug)
}

type GradeFilter struct {
	ClassID      int64
	SubjectID    int64
	StudentID    int64
	LessonID     int64
	AssignmentID int64
}
