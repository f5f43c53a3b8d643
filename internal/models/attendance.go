package models

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	default:
		return false
	}
}

type Attendance struct {
	ID        int64            `db:"id" json:"id,omitempty"`
	StudentID int64            `db:"student_id" json:"studentId"`
	LessonID  int64            `db:"lesson_id" json:"scheduleId"`
	ClassID   int64            `db:"class_id" json:"classId"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Date      string           `db:"lesson_date" json:"date"`
	Comment   string           `db:"comment" json:"comment"`

	// Defaulted marks a roster student without a stored record, filled in on read.
	Defaulted bool `db:"-" json:"defaulted,omitempty"`
}

type AttendanceEntry struct {
	StudentID int64            `json:"studentId" validate:"required,gt=0"`
	LessonID  int64            `json:"scheduleId" validate:"required,gt=0"`
	ClassID   int64            `json:"classId" validate:"omitempty,gt=0"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent late"`
	Date      string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Comment   string           `json:"comment" validate:"max=2000"`
}

func (e *AttendanceEntry) Validate() error {
	e.Comment = CleanString(e.Comment)
	return ValidateStruct(e)
}
