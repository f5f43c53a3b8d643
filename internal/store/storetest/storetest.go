// Package storetest holds the behaviour every store.JournalStore must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

func id(v int64) *int64 { return &v }

// Run exercises s against a fresh, empty schema.
func Run(t *testing.T, s store.JournalStore) {
	ctx := context.Background()

	var lesson, subLesson models.Lesson
	var assignment models.Assignment
	var grade models.Grade
	var subgroup models.Subgroup

	t.Run("create and get lesson", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			subgroup = models.Subgroup{Name: "group A", ClassID: 5, SchoolID: 1}
			if err := q.CreateSubgroup(ctx, &subgroup); err != nil {
				return err
			}

			lesson = models.Lesson{
				ClassID: 5, SubjectID: 7, TeacherID: 3,
				Date: "2024-09-02", StartsAt: 1000, EndsAt: 2000,
				Status: models.LessonNotConducted,
			}
			if err := q.CreateLesson(ctx, &lesson); err != nil {
				return err
			}
			subLesson = models.Lesson{
				ClassID: 5, SubjectID: 7, TeacherID: 3, SubgroupID: id(subgroup.ID),
				Date: "2024-09-03", StartsAt: 3000, EndsAt: 4000,
				Status: models.LessonNotConducted,
			}
			return q.CreateLesson(ctx, &subLesson)
		})
		require.NoError(t, err)
		require.NotZero(t, lesson.ID)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			got, err := q.GetLesson(ctx, lesson.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, lesson, *got)

			missing, err := q.GetLesson(ctx, lesson.ID+1000)
			require.NoError(t, err)
			assert.Nil(t, missing)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("list lessons by filter", func(t *testing.T) {
		err := s.InTx(ctx, true, func(q store.Queries) error {
			all, err := q.ListLessons(ctx, models.LessonFilter{ClassID: 5, SubjectID: 7})
			require.NoError(t, err)
			assert.Len(t, all, 2)

			bySubgroup, err := q.ListLessons(ctx, models.LessonFilter{SubgroupID: id(subgroup.ID)})
			require.NoError(t, err)
			require.Len(t, bySubgroup, 1)
			assert.Equal(t, subLesson.ID, bySubgroup[0].ID)

			byDate, err := q.ListLessons(ctx, models.LessonFilter{DateFrom: "2024-09-03", DateTo: "2024-09-30"})
			require.NoError(t, err)
			require.Len(t, byDate, 1)
			assert.Equal(t, subLesson.ID, byDate[0].ID)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("assignment and grade round trip", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			if err := q.UpdateLessonStatus(ctx, lesson.ID, models.LessonConducted); err != nil {
				return err
			}
			assignment = models.Assignment{
				LessonID: lesson.ID, SubjectID: 7, ClassID: 5, TeacherID: 3,
				Type: "test", MaxScore: 10, PlannedFor: true, CreatedAt: 1500,
			}
			if err := q.CreateAssignment(ctx, &assignment); err != nil {
				return err
			}
			grade = models.Grade{
				StudentID: 1, SubjectID: 7, ClassID: 5, TeacherID: 3,
				LessonID: id(lesson.ID), AssignmentID: id(assignment.ID),
				Value: 8, GradeType: "test", CreatedAt: id(2500),
			}
			return q.CreateGrade(ctx, &grade)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			l, err := q.GetLesson(ctx, lesson.ID)
			require.NoError(t, err)
			assert.Equal(t, models.LessonConducted, l.Status)

			a, err := q.GetAssignment(ctx, assignment.ID)
			require.NoError(t, err)
			require.NotNil(t, a)
			assert.True(t, a.PlannedFor)
			assert.Equal(t, 10.0, a.MaxScore)

			g, err := q.FindGrade(ctx, 1, assignment.ID)
			require.NoError(t, err)
			require.NotNil(t, g)
			assert.Equal(t, grade, *g)

			none, err := q.FindGrade(ctx, 2, assignment.ID)
			require.NoError(t, err)
			assert.Nil(t, none)

			refs, err := q.CountLessonRefs(ctx, lesson.ID)
			require.NoError(t, err)
			assert.Equal(t, store.LessonRefs{Assignments: 1, Grades: 1}, refs)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("update grade and assignment", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			grade.Value = 9
			grade.Comment = "retake"
			if err := q.UpdateGrade(ctx, &grade); err != nil {
				return err
			}
			assignment.MaxScore = 12
			return q.UpdateAssignment(ctx, &assignment)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			grades, err := q.ListGrades(ctx, models.GradeFilter{ClassID: 5, StudentID: 1})
			require.NoError(t, err)
			require.Len(t, grades, 1)
			assert.Equal(t, 9.0, grades[0].Value)
			assert.Equal(t, "retake", grades[0].Comment)

			a, err := q.GetAssignment(ctx, assignment.ID)
			require.NoError(t, err)
			assert.Equal(t, 12.0, a.MaxScore)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.InTx(ctx, false, func(q store.Queries) error {
			g := models.Grade{StudentID: 2, SubjectID: 7, ClassID: 5, TeacherID: 3, Value: 4, GradeType: "oral"}
			if err := q.CreateGrade(ctx, &g); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			grades, err := q.ListGrades(ctx, models.GradeFilter{StudentID: 2})
			require.NoError(t, err)
			assert.Empty(t, grades)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("attendance upsert keeps one row per student", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			first := models.Attendance{StudentID: 1, LessonID: lesson.ID, ClassID: 5, Status: models.AttendanceAbsent, Date: lesson.Date}
			if err := q.UpsertAttendance(ctx, &first); err != nil {
				return err
			}
			second := models.Attendance{StudentID: 1, LessonID: lesson.ID, ClassID: 5, Status: models.AttendanceLate, Date: lesson.Date, Comment: "bus"}
			if err := q.UpsertAttendance(ctx, &second); err != nil {
				return err
			}
			assert.Equal(t, first.ID, second.ID)
			return nil
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			records, err := q.ListAttendance(ctx, lesson.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, models.AttendanceLate, records[0].Status)
			assert.Equal(t, "bus", records[0].Comment)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("class settings upsert", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			if err := q.SetClassSettings(ctx, models.ClassSettings{ClassID: 5, GradingSystem: "ordinal"}); err != nil {
				return err
			}
			return q.SetClassSettings(ctx, models.ClassSettings{ClassID: 5, GradingSystem: "cumulative"})
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			cs, err := q.GetClassSettings(ctx, 5)
			require.NoError(t, err)
			require.NotNil(t, cs)
			assert.Equal(t, "cumulative", cs.GradingSystem)

			none, err := q.GetClassSettings(ctx, 6)
			require.NoError(t, err)
			assert.Nil(t, none)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("subgroup members are replaced", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			if err := q.SetSubgroupMembers(ctx, subgroup.ID, []int64{1, 2, 3}); err != nil {
				return err
			}
			return q.SetSubgroupMembers(ctx, subgroup.ID, []int64{2, 4})
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			members, err := q.ListSubgroupMembers(ctx, []int64{subgroup.ID})
			require.NoError(t, err)
			assert.Equal(t, []models.SubgroupMember{
				{SubgroupID: subgroup.ID, StudentID: 2},
				{SubgroupID: subgroup.ID, StudentID: 4},
			}, members)

			none, err := q.ListSubgroupMembers(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, none)

			list, err := q.ListSubgroups(ctx, 5)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "group A", list[0].Name)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("delete assignment with its grades", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			n, err := q.DeleteGradesByAssignment(ctx, assignment.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(1), n)
			return q.DeleteAssignment(ctx, assignment.ID)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			a, err := q.GetAssignment(ctx, assignment.ID)
			require.NoError(t, err)
			assert.Nil(t, a)

			g, err := q.GetGrade(ctx, grade.ID)
			require.NoError(t, err)
			assert.Nil(t, g)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("delete lesson", func(t *testing.T) {
		err := s.InTx(ctx, false, func(q store.Queries) error {
			return q.DeleteLesson(ctx, subLesson.ID)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, true, func(q store.Queries) error {
			l, err := q.GetLesson(ctx, subLesson.ID)
			require.NoError(t, err)
			assert.Nil(t, l)
			return nil
		})
		require.NoError(t, err)
	})
}
