package bot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

// usageError carries the usage line to show back to the user.
type usageError string

func (e usageError) Error() string {
	return "usage: " + string(e)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный id: %s", s)
	}
	return id, nil
}

// parseLessonsArgs reads "<class> [date]", the date defaulting to today.
func parseLessonsArgs(args []string, today time.Time) (models.LessonFilter, error) {
	const usage = usageError("/lessons <class> [YYYY-MM-DD]")

	if len(args) < 1 || len(args) > 2 {
		return models.LessonFilter{}, usage
	}
	classID, err := parseID(args[0])
	if err != nil {
		return models.LessonFilter{}, usage
	}

	date := today.Format(time.DateOnly)
	if len(args) == 2 {
		if _, err := time.Parse(time.DateOnly, args[1]); err != nil {
			return models.LessonFilter{}, usage
		}
		date = args[1]
	}

	return models.LessonFilter{ClassID: classID, DateFrom: date, DateTo: date}, nil
}

// parseAveragesArgs reads "<class> <student> [period] [year]". The period
// defaults to the whole year and the year is left 0 for the caller.
func parseAveragesArgs(args []string) (journal.AveragesQuery, error) {
	const usage = usageError("/avg <class> <student> [quarter1..quarter4|semester1|semester2|year] [year]")

	if len(args) < 2 || len(args) > 4 {
		return journal.AveragesQuery{}, usage
	}

	classID, err := parseID(args[0])
	if err != nil {
		return journal.AveragesQuery{}, usage
	}
	studentID, err := parseID(args[1])
	if err != nil {
		return journal.AveragesQuery{}, usage
	}

	query := journal.AveragesQuery{
		ClassID:   classID,
		StudentID: studentID,
		Period:    scoring.Year,
	}
	if len(args) >= 3 {
		if query.Period, err = scoring.ParsePeriod(args[2]); err != nil {
			return journal.AveragesQuery{}, usage
		}
	}
	if len(args) == 4 {
		year, err := strconv.Atoi(args[3])
		if err != nil || year < 1900 {
			return journal.AveragesQuery{}, usage
		}
		query.AcademicYear = year
	}
	return query, nil
}
