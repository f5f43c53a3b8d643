package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLessonValidate(t *testing.T) {
	t.Run("valid lesson", func(t *testing.T) {
		nl := NewLesson{ClassID: 1, SubjectID: 2, TeacherID: 3, Date: "2024-09-02", StartsAt: 100, EndsAt: 200}
		assert.NoError(t, nl.Validate())
	})

	t.Run("end before start", func(t *testing.T) {
		nl := NewLesson{ClassID: 1, SubjectID: 2, TeacherID: 3, Date: "2024-09-02", StartsAt: 200, EndsAt: 100}
		err := nl.Validate()
		require.Error(t, err)
		assert.Contains(t, FieldMessages(err), "endsAt")
	})

	t.Run("bad date reported by json name", func(t *testing.T) {
		nl := NewLesson{ClassID: 1, SubjectID: 2, TeacherID: 3, Date: "02.09.2024", StartsAt: 100, EndsAt: 200}
		fields := FieldMessages(nl.Validate())
		assert.Contains(t, fields, "date")
	})
}

func TestAttendanceEntryValidate(t *testing.T) {
	e := AttendanceEntry{StudentID: 1, LessonID: 2, Status: "sick"}
	fields := FieldMessages(e.Validate())
	require.NotNil(t, fields)
	assert.Contains(t, fields, "status")

	e.Status = AttendanceLate
	assert.NoError(t, e.Validate())
}

func TestNewGradeRequiredFields(t *testing.T) {
	ng := NewGrade{Value: 5, Comment: "  ok  "}
	fields := FieldMessages(ng.Validate())
	assert.Equal(t, "studentId is required", fields["studentId"])
	assert.Equal(t, "ok", ng.Comment)
}

func TestFieldMessagesNonValidatorError(t *testing.T) {
	assert.Nil(t, FieldMessages(assert.AnError))
}
