package journal

import (
	"context"

	"github.com/shrimpsizemoose/dagbok/internal/metrics"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

// checkRange validates a grade value against the class grading system.
// assignment is nil when the grade is not linked to one.
func checkRange(system scoring.GradingSystem, value float64, assignment *models.Assignment) *Error {
	switch system {
	case scoring.Cumulative:
		if value < 0 {
			return newError(KindOutOfRange, "grade %g is negative", value)
		}
		if assignment != nil && value > assignment.MaxScore {
			return newError(KindOutOfRange, "grade %g exceeds maxScore %g of assignment %d",
				value, assignment.MaxScore, assignment.ID)
		}
	default:
		if value < scoring.OrdinalMin || value > scoring.OrdinalMax {
			return newError(KindOutOfRange, "grade %g is outside %d..%d",
				value, scoring.OrdinalMin, scoring.OrdinalMax)
		}
	}
	return nil
}

func observeGradeWrite(system scoring.GradingSystem, value float64, err error) {
	label := string(system)
	if label == "" {
		label = "unknown"
	}
	if err != nil {
		metrics.GradeWritesTotal.WithLabelValues(label, "rejected").Inc()
		return
	}
	metrics.GradeWritesTotal.WithLabelValues(label, "accepted").Inc()
	metrics.GradeValueHistogram.WithLabelValues(label).Observe(value)
}

// RecordGrade stores a new grade after checking it against the class grading
// system, the linked assignment and lesson, and existing grades.
func (e *Engine) RecordGrade(ctx context.Context, ng models.NewGrade) (*models.Grade, error) {
	if err := ng.Validate(); err != nil {
		return nil, e.done("record grade", invalidInput(err))
	}
	if !finite(ng.Value) {
		return nil, e.done("record grade", fieldError("grade", "must be a finite number"))
	}

	var system scoring.GradingSystem
	var grade *models.Grade
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		var err error
		system, err = e.gradingSystem(ctx, q, ng.ClassID)
		if err != nil {
			return err
		}

		var assignment *models.Assignment
		lessonID := ng.LessonID
		if ng.AssignmentID != nil {
			assignment, err = q.GetAssignment(ctx, *ng.AssignmentID)
			if err != nil {
				return err
			}
			if assignment == nil {
				return notFound("assignment", *ng.AssignmentID)
			}
			if assignment.ClassID != ng.ClassID || assignment.SubjectID != ng.SubjectID {
				return fieldError("assignmentId", "belongs to another class or subject")
			}
			if lessonID != nil && *lessonID != assignment.LessonID {
				return fieldError("scheduleId", "does not match the assignment")
			}
			lessonID = &assignment.LessonID
		}

		var lesson *models.Lesson
		if lessonID != nil {
			lesson, err = q.GetLesson(ctx, *lessonID)
			if err != nil {
				return err
			}
			if lesson == nil {
				return notFound("lesson", *lessonID)
			}
			if lesson.ClassID != ng.ClassID || lesson.SubjectID != ng.SubjectID {
				return fieldError("scheduleId", "belongs to another class or subject")
			}
		}

		subgroupID := ng.SubgroupID
		if lesson != nil && lesson.SubgroupID != nil {
			if subgroupID != nil && *subgroupID != *lesson.SubgroupID {
				return fieldError("subgroupId", "does not match the lesson")
			}
			subgroupID = lesson.SubgroupID
		}

		if err := checkRange(system, ng.Value, assignment); err != nil {
			return err
		}

		if assignment != nil && assignment.PlannedFor && !lesson.IsConducted() {
			return newError(KindLessonNotConducted,
				"assignment %d is planned for lesson %d which is not conducted yet",
				assignment.ID, lesson.ID)
		}

		if assignment != nil && lesson.IsConducted() {
			existing, err := q.FindGrade(ctx, ng.StudentID, assignment.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return newError(KindDuplicateGrade,
					"student %d already has grade %d for assignment %d",
					ng.StudentID, existing.ID, assignment.ID)
			}
		}

		gradeType := ng.GradeType
		if gradeType == "" && assignment != nil {
			gradeType = assignment.Type
		}
		if gradeType == "" {
			gradeType = e.cfg.DefaultGradeType
		}

		createdAt := e.now().Unix()
		grade = &models.Grade{
			StudentID:    ng.StudentID,
			SubjectID:    ng.SubjectID,
			ClassID:      ng.ClassID,
			TeacherID:    ng.TeacherID,
			LessonID:     lessonID,
			AssignmentID: ng.AssignmentID,
			SubgroupID:   subgroupID,
			Value:        ng.Value,
			GradeType:    gradeType,
			Comment:      ng.Comment,
			CreatedAt:    &createdAt,
		}
		return q.CreateGrade(ctx, grade)
	})
	observeGradeWrite(system, ng.Value, err)
	if err != nil {
		return nil, e.done("record grade", err)
	}
	return grade, nil
}

// UpdateGrade patches value, type or comment of a grade. Replaying the same
// patch yields the same grade.
func (e *Engine) UpdateGrade(ctx context.Context, id int64, patch models.UpdateGrade) (*models.Grade, error) {
	if err := patch.Validate(); err != nil {
		return nil, e.done("update grade", invalidInput(err))
	}
	if patch.Value != nil && !finite(*patch.Value) {
		return nil, e.done("update grade", fieldError("grade", "must be a finite number"))
	}

	var system scoring.GradingSystem
	var grade *models.Grade
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		var err error
		grade, err = q.GetGrade(ctx, id)
		if err != nil {
			return err
		}
		if grade == nil {
			return notFound("grade", id)
		}

		system, err = e.gradingSystem(ctx, q, grade.ClassID)
		if err != nil {
			return err
		}

		if patch.Value != nil {
			var assignment *models.Assignment
			if grade.AssignmentID != nil {
				assignment, err = q.GetAssignment(ctx, *grade.AssignmentID)
				if err != nil {
					return err
				}
			}
			if err := checkRange(system, *patch.Value, assignment); err != nil {
				return err
			}
			grade.Value = *patch.Value
		}
		if patch.GradeType != nil {
			grade.GradeType = models.CleanString(*patch.GradeType)
		}
		if patch.Comment != nil {
			grade.Comment = models.CleanString(*patch.Comment)
		}
		return q.UpdateGrade(ctx, grade)
	})
	if patch.Value != nil {
		observeGradeWrite(system, *patch.Value, err)
	}
	if err != nil {
		return nil, e.done("update grade", err)
	}
	return grade, nil
}

// DeleteGrade removes a grade. A missing grade is not an error.
func (e *Engine) DeleteGrade(ctx context.Context, id int64) error {
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		return q.DeleteGrade(ctx, id)
	})
	return e.done("delete grade", err)
}

func (e *Engine) GetGrade(ctx context.Context, id int64) (*models.Grade, error) {
	var grade *models.Grade
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		grade, err = q.GetGrade(ctx, id)
		if err != nil {
			return err
		}
		if grade == nil {
			return notFound("grade", id)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("get grade", err)
	}
	return grade, nil
}

func (e *Engine) ListGrades(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	var grades []models.Grade
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		grades, err = q.ListGrades(ctx, filter)
		return err
	})
	if err != nil {
		return nil, e.done("list grades", err)
	}
	return grades, nil
}
