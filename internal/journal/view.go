package journal

import (
	"context"
	"sort"
	"time"

	"github.com/shrimpsizemoose/dagbok/internal/attribution"
	"github.com/shrimpsizemoose/dagbok/internal/metrics"
	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

// View is one journal page: the main journal of a subject in a class, or
// the journal of one of its subgroups.
type View struct {
	ClassID       int64                 `json:"classId"`
	SubjectID     int64                 `json:"subjectId"`
	SubgroupID    *int64                `json:"subgroupId,omitempty"`
	GradingSystem scoring.GradingSystem `json:"gradingSystem"`
	Lessons       []models.Lesson       `json:"lessons"`
	Assignments   []models.Assignment   `json:"assignments"`
	Grades        []models.Grade        `json:"grades"`
}

// loadResolver reads the lessons of a subject in a class and the members
// of the subgroups taught on them.
func loadResolver(ctx context.Context, q store.Queries, classID, subjectID int64) (*attribution.Resolver, []models.Lesson, error) {
	lessons, err := q.ListLessons(ctx, models.LessonFilter{ClassID: classID, SubjectID: subjectID})
	if err != nil {
		return nil, nil, err
	}

	var subgroupIDs []int64
	seen := make(map[int64]bool)
	for _, l := range lessons {
		if l.SubgroupID != nil && !seen[*l.SubgroupID] {
			seen[*l.SubgroupID] = true
			subgroupIDs = append(subgroupIDs, *l.SubgroupID)
		}
	}

	members, err := q.ListSubgroupMembers(ctx, subgroupIDs)
	if err != nil {
		return nil, nil, err
	}
	return attribution.NewResolver(lessons, members), lessons, nil
}

// JournalView returns the lessons, assignments and grades visible in one
// journal. subgroupID 0 selects the main journal.
func (e *Engine) JournalView(ctx context.Context, classID, subjectID, subgroupID int64) (*View, error) {
	if classID <= 0 || subjectID <= 0 {
		return nil, e.done("journal view", validationf("classId and subjectId are required"))
	}

	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues("journal").Observe(time.Since(start).Seconds())
	}()

	view := &View{ClassID: classID, SubjectID: subjectID}
	if subgroupID != attribution.Main {
		view.SubgroupID = &subgroupID
	}

	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		if subgroupID != attribution.Main {
			sg, err := q.GetSubgroup(ctx, subgroupID)
			if err != nil {
				return err
			}
			if sg == nil || sg.ClassID != classID {
				return notFound("subgroup", subgroupID)
			}
		}

		var err error
		view.GradingSystem, err = e.gradingSystem(ctx, q, classID)
		if err != nil {
			return err
		}

		resolver, lessons, err := loadResolver(ctx, q, classID, subjectID)
		if err != nil {
			return err
		}
		assignments, err := q.ListAssignments(ctx, models.AssignmentFilter{ClassID: classID, SubjectID: subjectID})
		if err != nil {
			return err
		}
		grades, err := q.ListGrades(ctx, models.GradeFilter{ClassID: classID, SubjectID: subjectID})
		if err != nil {
			return err
		}

		view.Lessons = attribution.FilterLessons(lessons, subgroupID)
		view.Assignments = resolver.FilterAssignments(assignments, subgroupID)
		view.Grades = resolver.FilterGrades(grades, subgroupID)
		return nil
	})
	if err != nil {
		return nil, e.done("journal view", err)
	}
	return view, nil
}

func sortInt64s(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
