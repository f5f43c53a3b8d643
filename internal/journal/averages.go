package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/attribution"
	"github.com/shrimpsizemoose/dagbok/internal/metrics"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

// OverallKey holds the result over all subjects of a student.
const OverallKey = "overall"

type AveragesQuery struct {
	ClassID   int64
	SubjectID int64
	StudentID int64
	// SubgroupID limits grades to one journal, 0 being the main journal.
	// nil counts every grade of the student.
	SubgroupID   *int64
	Period       scoring.Period
	AcademicYear int
}

// Averages maps student id to subject id (or OverallKey) to the result.
type Averages map[int64]map[string]scoring.Result

func SubjectKey(subjectID int64) string {
	return strconv.FormatInt(subjectID, 10)
}

// Averages computes period averages from one consistent snapshot.
// Untimestamped grades always qualify. Grades of planned assignments count
// only once their lesson is conducted.
func (e *Engine) Averages(ctx context.Context, query AveragesQuery) (Averages, error) {
	if query.ClassID <= 0 {
		return nil, e.done("averages", fieldError("classId", "is required"))
	}
	if query.Period == "" {
		query.Period = scoring.Year
	}
	if query.AcademicYear == 0 {
		query.AcademicYear = scoring.AcademicYear(e.Now())
	}
	period, err := scoring.PeriodRange(query.Period, query.AcademicYear, e.cfg.Location)
	if err != nil {
		return nil, e.done("averages", fieldError("period", err.Error()))
	}

	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("averages").Observe(time.Since(start).Seconds())
	}()

	var system scoring.GradingSystem
	marks := make(map[int64]map[int64][]scoring.Mark)
	untimestamped := 0

	err = e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		system, err = e.gradingSystem(ctx, q, query.ClassID)
		if err != nil {
			return err
		}

		grades, err := q.ListGrades(ctx, models.GradeFilter{
			ClassID:   query.ClassID,
			SubjectID: query.SubjectID,
			StudentID: query.StudentID,
		})
		if err != nil {
			return err
		}
		lessons, err := q.ListLessons(ctx, models.LessonFilter{ClassID: query.ClassID, SubjectID: query.SubjectID})
		if err != nil {
			return err
		}
		assignments, err := q.ListAssignments(ctx, models.AssignmentFilter{ClassID: query.ClassID, SubjectID: query.SubjectID})
		if err != nil {
			return err
		}

		lessonByID := make(map[int64]models.Lesson, len(lessons))
		for _, l := range lessons {
			lessonByID[l.ID] = l
		}
		assignmentByID := make(map[int64]models.Assignment, len(assignments))
		for _, a := range assignments {
			assignmentByID[a.ID] = a
		}

		var resolvers map[int64]*attribution.Resolver
		if query.SubgroupID != nil {
			resolvers, err = subjectResolvers(ctx, q, lessons)
			if err != nil {
				return err
			}
		}

		for _, g := range grades {
			if g.CreatedAt != nil && !period.Contains(*g.CreatedAt) {
				continue
			}

			mark := scoring.Mark{Value: g.Value, GradeType: g.GradeType}
			if g.AssignmentID != nil {
				if a, ok := assignmentByID[*g.AssignmentID]; ok {
					if a.PlannedFor {
						l, ok := lessonByID[a.LessonID]
						if !ok || !l.IsConducted() {
							continue
						}
					}
					maxScore := a.MaxScore
					mark.MaxScore = &maxScore
				}
			}

			if query.SubgroupID != nil {
				r := resolvers[g.SubjectID]
				if r == nil {
					r = attribution.NewResolver(nil, nil)
				}
				if r.GradeOwner(g) != *query.SubgroupID {
					continue
				}
			}

			if g.CreatedAt == nil {
				untimestamped++
			}
			bySubject, ok := marks[g.StudentID]
			if !ok {
				bySubject = make(map[int64][]scoring.Mark)
				marks[g.StudentID] = bySubject
			}
			bySubject[g.SubjectID] = append(bySubject[g.SubjectID], mark)
		}
		return nil
	})
	if err != nil {
		return nil, e.done("averages", err)
	}

	if untimestamped > 0 {
		metrics.UntimestampedGradesTotal.Add(float64(untimestamped))
		logger.Debug.Printf("averages for class %d included %d grades without createdAt", query.ClassID, untimestamped)
	}

	out := make(Averages, len(marks))
	for studentID, bySubject := range marks {
		results := make(map[string]scoring.Result, len(bySubject)+1)
		var all []scoring.Mark
		for subjectID, m := range bySubject {
			results[SubjectKey(subjectID)] = e.grader.Aggregate(system, m)
			all = append(all, m...)
		}
		results[OverallKey] = e.grader.Aggregate(system, all)
		out[studentID] = results
	}

	if query.StudentID != 0 {
		if _, ok := out[query.StudentID]; !ok {
			out[query.StudentID] = map[string]scoring.Result{OverallKey: scoring.NoData()}
		}
		if query.SubjectID != 0 {
			key := SubjectKey(query.SubjectID)
			if _, ok := out[query.StudentID][key]; !ok {
				out[query.StudentID][key] = scoring.NoData()
			}
		}
	}

	return out, nil
}

// subjectResolvers builds one attribution resolver per subject found in lessons.
func subjectResolvers(ctx context.Context, q store.Queries, lessons []models.Lesson) (map[int64]*attribution.Resolver, error) {
	bySubject := make(map[int64][]models.Lesson)
	var subgroupIDs []int64
	seen := make(map[int64]bool)
	for _, l := range lessons {
		bySubject[l.SubjectID] = append(bySubject[l.SubjectID], l)
		if l.SubgroupID != nil && !seen[*l.SubgroupID] {
			seen[*l.SubgroupID] = true
			subgroupIDs = append(subgroupIDs, *l.SubgroupID)
		}
	}

	members, err := q.ListSubgroupMembers(ctx, subgroupIDs)
	if err != nil {
		return nil, err
	}

	resolvers := make(map[int64]*attribution.Resolver, len(bySubject))
	for subjectID, ls := range bySubject {
		resolvers[subjectID] = attribution.NewResolver(ls, members)
	}
	return resolvers, nil
}
