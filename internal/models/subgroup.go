package models

type Subgroup struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	ClassID   int64   `db:"class_id" json:"classId"`
	SchoolID  int64   `db:"school_id" json:"schoolId"`
	MemberIDs []int64 `db:"-" json:"studentIds"`
}

type NewSubgroup struct {
	Name      string  `json:"name" validate:"required,max=128"`
	ClassID   int64   `json:"classId" validate:"required,gt=0"`
	SchoolID  int64   `json:"schoolId" validate:"required,gt=0"`
	MemberIDs []int64 `json:"studentIds" validate:"dive,gt=0"`
}

func (ns *NewSubgroup) Validate() error {
	ns.Name = CleanString(ns.Name)
	return ValidateStruct(ns)
}

type SubgroupMember struct {
	SubgroupID int64 `db:"subgroup_id"`
	StudentID  int64 `db:"student_id"`
}

// ClassSettings holds per-class options. Only the grading system for now.
type ClassSettings struct {
	ClassID       int64  `db:"class_id" json:"classId"`
	GradingSystem string `db:"grading_system" json:"gradingSystem"`
}
