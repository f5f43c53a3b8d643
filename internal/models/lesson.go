package models

import (
	"time"
)

type LessonStatus string

const (
	LessonNotConducted LessonStatus = "not_conducted"
	LessonConducted    LessonStatus = "conducted"
)

func (s LessonStatus) Valid() bool {
	switch s {
	case LessonNotConducted, LessonConducted:
		return true
	default:
		return false
	}
}

// Lesson is one calendar occurrence of a subject taught to a class or to
// one of its subgroups. StartsAt and EndsAt are unix seconds.
type Lesson struct {
	ID         int64        `db:"id" json:"id"`
	ClassID    int64        `db:"class_id" json:"classId"`
	SubjectID  int64        `db:"subject_id" json:"subjectId"`
	TeacherID  int64        `db:"teacher_id" json:"teacherId"`
	SubgroupID *int64       `db:"subgroup_id" json:"subgroupId,omitempty"`
	Date       string       `db:"lesson_date" json:"date"`
	StartsAt   int64        `db:"starts_at" json:"startsAt"`
	EndsAt     int64        `db:"ends_at" json:"endsAt"`
	Status     LessonStatus `db:"status" json:"status"`
}

func (l *Lesson) IsConducted() bool {
	return l.Status == LessonConducted
}

// Ended reports whether the lesson is over at the given moment.
func (l *Lesson) Ended(now time.Time) bool {
	return now.Unix() >= l.EndsAt
}

type NewLesson struct {
	ClassID    int64  `json:"classId" validate:"required,gt=0"`
	SubjectID  int64  `json:"subjectId" validate:"required,gt=0"`
	TeacherID  int64  `json:"teacherId" validate:"required,gt=0"`
	SubgroupID *int64 `json:"subgroupId" validate:"omitempty,gt=0"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	StartsAt   int64  `json:"startsAt" validate:"required,gt=0"`
	EndsAt     int64  `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

func (nl *NewLesson) Validate() error {
	return ValidateStruct(nl)
}

type LessonFilter struct {
	ID         int64
	ClassID    int64
	SubjectID  int64
	TeacherID  int64
	SubgroupID *int64
	DateFrom   string
	DateTo     string
}
