package models

// Assignment is a gradable work item bound to exactly one lesson.
type Assignment struct {
	ID          int64   `db:"id" json:"id"`
	LessonID    int64   `db:"lesson_id" json:"scheduleId"`
	SubjectID   int64   `db:"subject_id" json:"subjectId"`
	ClassID     int64   `db:"class_id" json:"classId"`
	TeacherID   int64   `db:"teacher_id" json:"teacherId"`
	SubgroupID  *int64  `db:"subgroup_id" json:"subgroupId,omitempty"`
	Type        string  `db:"assignment_type" json:"assignmentType"`
	MaxScore    float64 `db:"max_score" json:"maxScore"`
	Description string  `db:"description" json:"description"`
	PlannedFor  bool    `db:"planned_for" json:"plannedFor"`
	CreatedAt   int64   `db:"created_at" json:"createdAt"`
}

type NewAssignment struct {
	LessonID    int64   `json:"scheduleId" validate:"required,gt=0"`
	SubjectID   int64   `json:"subjectId" validate:"omitempty,gt=0"`
	ClassID     int64   `json:"classId" validate:"omitempty,gt=0"`
	TeacherID   int64   `json:"teacherId" validate:"required,gt=0"`
	SubgroupID  *int64  `json:"subgroupId" validate:"omitempty,gt=0"`
	Type        string  `json:"assignmentType" validate:"required,max=64"`
	MaxScore    float64 `json:"maxScore"`
	Description string  `json:"description" validate:"max=2000"`
	PlannedFor  bool    `json:"plannedFor"`
}

func (na *NewAssignment) Validate() error {
	na.Type = CleanString(na.Type)
	na.Description = CleanString(na.Description)
	return ValidateStruct(na)
}

// UpdateAssignment defines what may be changed on an existing Assignment.
type UpdateAssignment struct {
	Type        *string  `json:"assignmentType" validate:"omitempty,min=1,max=64"`
	MaxScore    *float64 `json:"maxScore"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	PlannedFor  *bool    `json:"plannedFor"`
}

func (ua *UpdateAssignment) Validate() error {
	if ua.Type != nil {
		t := CleanString(*ua.Type)
		ua.Type = &t
	}
	return ValidateStruct(ua)
}

type AssignmentFilter struct {
	LessonID  int64
	ClassID   int64
	SubjectID int64
}
