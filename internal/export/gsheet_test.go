package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store/memory"
)

type mockSheet struct {
	mock.Mock
}

func (m *mockSheet) Read(ctx context.Context, sheetID, readRange string) ([][]interface{}, error) {
	args := m.Called(ctx, sheetID, readRange)
	rows, _ := args.Get(0).([][]interface{})
	return rows, args.Error(1)
}

func (m *mockSheet) Write(ctx context.Context, sheetID string, cells map[string]interface{}) error {
	args := m.Called(ctx, sheetID, cells)
	return args.Error(0)
}

func newTestExporter(t *testing.T) *GSheetExporter {
	t.Helper()

	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	engine := journal.NewEngine(memory.NewMemoryStore(), scoring.NewGrader(nil, 1), journal.Config{},
		journal.WithClock(func() time.Time { return now }))

	ctx := context.Background()
	start := now.Add(-time.Hour)
	lesson, err := engine.CreateLesson(ctx, models.NewLesson{
		ClassID:   8,
		SubjectID: 2,
		TeacherID: 3,
		Date:      "2024-09-02",
		StartsAt:  start.Unix(),
		EndsAt:    start.Add(45 * time.Minute).Unix(),
	})
	require.NoError(t, err)
	_, err = engine.SetLessonStatus(ctx, lesson.ID, models.LessonConducted)
	require.NoError(t, err)

	for _, v := range []float64{5, 4} {
		_, err := engine.RecordGrade(ctx, models.NewGrade{
			StudentID: 1045,
			SubjectID: 2,
			ClassID:   8,
			TeacherID: 3,
			Value:     v,
			LessonID:  &lesson.ID,
		})
		require.NoError(t, err)
	}

	return &GSheetExporter{journal: engine}
}

func TestExport(t *testing.T) {
	e := newTestExporter(t)
	cfg := app.GSheetConfig{
		SheetID:       "sheet",
		SheetName:     "8B",
		ClassID:       8,
		SubjectID:     2,
		Period:        "quarter1",
		AcademicYear:  2024,
		StudentsRange: "A2:A5",
		FirstRow:      2,
		AverageColumn: "C",
		UpdatedAtCell: "C1",
	}

	sheet := new(mockSheet)
	sheet.On("Read", mock.Anything, "sheet", "8B!A2:A5").Return([][]interface{}{
		{"1045"},
		{},
		{"2000"},
		{"name"},
	}, nil)
	sheet.On("Write", mock.Anything, "sheet", map[string]interface{}{
		"8B!C2": 4.5,
		"8B!C4": noData,
		"8B!C1": "UPD: 2 September 10:00",
	}).Return(nil)

	require.NoError(t, e.Export(context.Background(), sheet, cfg))
	sheet.AssertExpectations(t)
}

func TestExport_Errors(t *testing.T) {
	e := newTestExporter(t)
	cfg := app.GSheetConfig{SheetID: "sheet", ClassID: 8, Period: "year", StudentsRange: "8B!A2:A3", AverageColumn: "C"}

	t.Run("read fails", func(t *testing.T) {
		sheet := new(mockSheet)
		sheet.On("Read", mock.Anything, "sheet", "8B!A2:A3").Return(nil, errors.New("quota"))
		assert.ErrorContains(t, e.Export(context.Background(), sheet, cfg), "failed to read students")
	})

	t.Run("empty sheet writes nothing", func(t *testing.T) {
		sheet := new(mockSheet)
		sheet.On("Read", mock.Anything, "sheet", "8B!A2:A3").Return([][]interface{}{}, nil)
		require.NoError(t, e.Export(context.Background(), sheet, cfg))
		sheet.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "8B!A1", qualify("8B", "A1"))
	assert.Equal(t, "Other!A1", qualify("8B", "Other!A1"))
	assert.Equal(t, "A1", qualify("", "A1"))
}
