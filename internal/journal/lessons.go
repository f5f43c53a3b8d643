package journal

import (
	"context"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

func (e *Engine) CreateLesson(ctx context.Context, nl models.NewLesson) (*models.Lesson, error) {
	if err := nl.Validate(); err != nil {
		return nil, e.done("create lesson", invalidInput(err))
	}

	lesson := &models.Lesson{
		ClassID:    nl.ClassID,
		SubjectID:  nl.SubjectID,
		TeacherID:  nl.TeacherID,
		SubgroupID: nl.SubgroupID,
		Date:       nl.Date,
		StartsAt:   nl.StartsAt,
		EndsAt:     nl.EndsAt,
		Status:     models.LessonNotConducted,
	}

	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		if nl.SubgroupID != nil {
			sg, err := q.GetSubgroup(ctx, *nl.SubgroupID)
			if err != nil {
				return err
			}
			if sg == nil {
				return notFound("subgroup", *nl.SubgroupID)
			}
			if sg.ClassID != nl.ClassID {
				return fieldError("subgroupId", "subgroup belongs to another class")
			}
		}
		return q.CreateLesson(ctx, lesson)
	})
	if err != nil {
		return nil, e.done("create lesson", err)
	}
	return lesson, nil
}

func (e *Engine) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson *models.Lesson
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		lesson, err = q.GetLesson(ctx, id)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound("lesson", id)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("get lesson", err)
	}
	return lesson, nil
}

func (e *Engine) ListLessons(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		lessons, err = q.ListLessons(ctx, filter)
		return err
	})
	if err != nil {
		return nil, e.done("list lessons", err)
	}
	return lessons, nil
}

// SetLessonStatus moves a lesson between not_conducted and conducted.
// A lesson can be conducted only once it has ended. Going back is allowed
// while nothing was graded or marked on it.
func (e *Engine) SetLessonStatus(ctx context.Context, id int64, status models.LessonStatus) (*models.Lesson, error) {
	if !status.Valid() {
		return nil, e.done("set lesson status", fieldError("status", "must be one of not_conducted conducted"))
	}

	var lesson *models.Lesson
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		var err error
		lesson, err = q.GetLesson(ctx, id)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound("lesson", id)
		}
		if lesson.Status == status {
			return nil
		}

		switch status {
		case models.LessonConducted:
			if !lesson.Ended(e.now()) {
				return newError(KindInvalidTransition, "lesson %d has not ended yet", id)
			}
		case models.LessonNotConducted:
			refs, err := q.CountLessonRefs(ctx, id)
			if err != nil {
				return err
			}
			if refs.Grades > 0 || refs.Attendance > 0 {
				return newError(KindInvalidTransition,
					"lesson %d already has %d grades and %d attendance records",
					id, refs.Grades, refs.Attendance)
			}
		}

		if err := q.UpdateLessonStatus(ctx, id, status); err != nil {
			return err
		}
		lesson.Status = status
		return nil
	})
	if err != nil {
		return nil, e.done("set lesson status", err)
	}
	return lesson, nil
}

// DeleteLesson removes an unreferenced lesson. Deleting a missing lesson succeeds.
func (e *Engine) DeleteLesson(ctx context.Context, id int64) error {
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		lesson, err := q.GetLesson(ctx, id)
		if err != nil {
			return err
		}
		if lesson == nil {
			return nil
		}

		refs, err := q.CountLessonRefs(ctx, id)
		if err != nil {
			return err
		}
		if refs.Total() > 0 {
			return validationf("lesson %d is referenced by %d assignments, %d grades and %d attendance records",
				id, refs.Assignments, refs.Grades, refs.Attendance)
		}
		return q.DeleteLesson(ctx, id)
	})
	return e.done("delete lesson", err)
}
