package journal

import (
	"context"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

// DeletionPlan lists what confirming the deletion of an assignment removes.
type DeletionPlan struct {
	AssignmentID int64   `json:"assignmentId"`
	Exists       bool    `json:"exists"`
	GradeIDs     []int64 `json:"gradeIds"`
}

func checkMaxScore(v float64) *Error {
	if !finite(v) || v <= 0 {
		return fieldError("maxScore", "must be a positive finite number")
	}
	return nil
}

func (e *Engine) CreateAssignment(ctx context.Context, na models.NewAssignment) (*models.Assignment, error) {
	if err := na.Validate(); err != nil {
		return nil, e.done("create assignment", invalidInput(err))
	}
	if err := checkMaxScore(na.MaxScore); err != nil {
		return nil, e.done("create assignment", err)
	}

	var assignment *models.Assignment
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		lesson, err := q.GetLesson(ctx, na.LessonID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound("lesson", na.LessonID)
		}
		if na.SubjectID != 0 && na.SubjectID != lesson.SubjectID {
			return fieldError("subjectId", "does not match the lesson")
		}
		if na.ClassID != 0 && na.ClassID != lesson.ClassID {
			return fieldError("classId", "does not match the lesson")
		}

		subgroupID := lesson.SubgroupID
		if na.SubgroupID != nil {
			if lesson.SubgroupID != nil && *lesson.SubgroupID != *na.SubgroupID {
				return fieldError("subgroupId", "does not match the lesson")
			}
			subgroupID = na.SubgroupID
		}

		assignment = &models.Assignment{
			LessonID:    lesson.ID,
			SubjectID:   lesson.SubjectID,
			ClassID:     lesson.ClassID,
			TeacherID:   na.TeacherID,
			SubgroupID:  subgroupID,
			Type:        na.Type,
			MaxScore:    na.MaxScore,
			Description: na.Description,
			PlannedFor:  na.PlannedFor,
			CreatedAt:   e.now().Unix(),
		}
		return q.CreateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, e.done("create assignment", err)
	}
	return assignment, nil
}

func (e *Engine) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	var assignment *models.Assignment
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		assignment, err = q.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return notFound("assignment", id)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("get assignment", err)
	}
	return assignment, nil
}

func (e *Engine) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		assignments, err = q.ListAssignments(ctx, filter)
		return err
	})
	if err != nil {
		return nil, e.done("list assignments", err)
	}
	return assignments, nil
}

// UpdateAssignment applies a patch. In a cumulative class maxScore cannot
// drop below a grade already given for the assignment.
func (e *Engine) UpdateAssignment(ctx context.Context, id int64, patch models.UpdateAssignment) (*models.Assignment, error) {
	if err := patch.Validate(); err != nil {
		return nil, e.done("update assignment", invalidInput(err))
	}
	if patch.MaxScore != nil {
		if err := checkMaxScore(*patch.MaxScore); err != nil {
			return nil, e.done("update assignment", err)
		}
	}

	var assignment *models.Assignment
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		var err error
		assignment, err = q.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return notFound("assignment", id)
		}

		if patch.MaxScore != nil && *patch.MaxScore < assignment.MaxScore {
			system, err := e.gradingSystem(ctx, q, assignment.ClassID)
			if err != nil {
				return err
			}
			if system == scoring.Cumulative {
				grades, err := q.ListGrades(ctx, models.GradeFilter{AssignmentID: id})
				if err != nil {
					return err
				}
				for _, g := range grades {
					if g.Value > *patch.MaxScore {
						return newError(KindOutOfRange,
							"grade %d has %g points, more than the new maxScore %g",
							g.ID, g.Value, *patch.MaxScore)
					}
				}
			}
		}

		if patch.Type != nil {
			assignment.Type = *patch.Type
		}
		if patch.MaxScore != nil {
			assignment.MaxScore = *patch.MaxScore
		}
		if patch.Description != nil {
			assignment.Description = models.CleanString(*patch.Description)
		}
		if patch.PlannedFor != nil {
			assignment.PlannedFor = *patch.PlannedFor
		}
		return q.UpdateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, e.done("update assignment", err)
	}
	return assignment, nil
}

// PrepareAssignmentDeletion reports the grades that would go away together
// with the assignment. Nothing is changed.
func (e *Engine) PrepareAssignmentDeletion(ctx context.Context, id int64) (*DeletionPlan, error) {
	plan := &DeletionPlan{AssignmentID: id, GradeIDs: []int64{}}
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		assignment, err := q.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return nil
		}
		plan.Exists = true

		grades, err := q.ListGrades(ctx, models.GradeFilter{AssignmentID: id})
		if err != nil {
			return err
		}
		for _, g := range grades {
			plan.GradeIDs = append(plan.GradeIDs, g.ID)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("prepare assignment deletion", err)
	}
	return plan, nil
}

// ConfirmAssignmentDeletion removes the assignment and every grade attached
// to it in one transaction, including grades added after the plan was made.
// It returns the number of grades removed.
func (e *Engine) ConfirmAssignmentDeletion(ctx context.Context, plan DeletionPlan) (int64, error) {
	var deleted int64
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		assignment, err := q.GetAssignment(ctx, plan.AssignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return nil
		}

		deleted, err = q.DeleteGradesByAssignment(ctx, plan.AssignmentID)
		if err != nil {
			return err
		}
		return q.DeleteAssignment(ctx, plan.AssignmentID)
	})
	if err != nil {
		return 0, e.done("confirm assignment deletion", err)
	}
	return deleted, nil
}
