package journal

import (
	"context"
	"fmt"
	"sort"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

// RecordAttendance upserts attendance for one conducted lesson. All entries
// are validated before anything is written.
func (e *Engine) RecordAttendance(ctx context.Context, entries []models.AttendanceEntry) ([]models.Attendance, error) {
	if len(entries) == 0 {
		return nil, e.done("record attendance", validationf("no attendance entries"))
	}

	fields := make(map[string]string)
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			for field, msg := range invalidInput(err).Fields {
				fields[fmt.Sprintf("[%d].%s", i, field)] = msg
			}
		}
	}
	if len(fields) > 0 {
		return nil, e.done("record attendance", &Error{
			Kind:    KindValidation,
			Message: "invalid attendance entries",
			Fields:  fields,
		})
	}

	lessonID := entries[0].LessonID
	for _, entry := range entries[1:] {
		if entry.LessonID != lessonID {
			return nil, e.done("record attendance", fieldError("scheduleId", "all entries must reference the same lesson"))
		}
	}

	var records []models.Attendance
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		lesson, err := q.GetLesson(ctx, lessonID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound("lesson", lessonID)
		}
		if !lesson.IsConducted() {
			return newError(KindLessonNotConducted, "lesson %d is not conducted", lessonID)
		}

		for _, entry := range entries {
			if entry.ClassID != 0 && entry.ClassID != lesson.ClassID {
				return fieldError("classId", "does not match the lesson")
			}
			rec := models.Attendance{
				StudentID: entry.StudentID,
				LessonID:  lesson.ID,
				ClassID:   lesson.ClassID,
				Status:    entry.Status,
				Date:      lesson.Date,
				Comment:   entry.Comment,
			}
			if err := q.UpsertAttendance(ctx, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("record attendance", err)
	}
	return records, nil
}

// ListAttendance returns the stored records of a lesson. Roster students
// without a record are reported as absent with Defaulted set; nothing is
// written. A nil roster means the members of the lesson's subgroup, if any.
func (e *Engine) ListAttendance(ctx context.Context, lessonID int64, roster []int64) ([]models.Attendance, error) {
	var records []models.Attendance
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		lesson, err := q.GetLesson(ctx, lessonID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound("lesson", lessonID)
		}

		records, err = q.ListAttendance(ctx, lessonID)
		if err != nil {
			return err
		}

		if roster == nil && lesson.SubgroupID != nil {
			members, err := q.ListSubgroupMembers(ctx, []int64{*lesson.SubgroupID})
			if err != nil {
				return err
			}
			for _, m := range members {
				roster = append(roster, m.StudentID)
			}
		}

		seen := make(map[int64]bool, len(records))
		for _, rec := range records {
			seen[rec.StudentID] = true
		}
		for _, studentID := range roster {
			if seen[studentID] {
				continue
			}
			seen[studentID] = true
			records = append(records, models.Attendance{
				StudentID: studentID,
				LessonID:  lesson.ID,
				ClassID:   lesson.ClassID,
				Status:    models.AttendanceAbsent,
				Date:      lesson.Date,
				Defaulted: true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list attendance", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}
