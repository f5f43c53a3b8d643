// Package attribution decides which journal of a class/subject owns a
// record: the main journal or exactly one subgroup journal.
package attribution

import (
	"sort"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

// Main is the view id of the main (whole class) journal.
const Main int64 = 0

// Resolver holds the lessons of one (class, subject) pair and the
// memberships of the subgroups taught on them.
type Resolver struct {
	lessonOwner map[int64]int64
	known       map[int64]bool
	// student -> lowest known subgroup id the student belongs to
	memberOf map[int64]int64
}

// NewResolver builds a resolver from the subject's lessons in the class and
// the subgroup member lists. Subgroups that never appear on a lesson of the
// subject are ignored.
func NewResolver(lessons []models.Lesson, members []models.SubgroupMember) *Resolver {
	r := &Resolver{
		lessonOwner: make(map[int64]int64, len(lessons)),
		known:       make(map[int64]bool),
		memberOf:    make(map[int64]int64),
	}

	for _, l := range lessons {
		owner := Main
		if l.SubgroupID != nil {
			owner = *l.SubgroupID
			r.known[owner] = true
		}
		r.lessonOwner[l.ID] = owner
	}

	sorted := make([]models.SubgroupMember, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SubgroupID < sorted[j].SubgroupID
	})
	for _, m := range sorted {
		if !r.known[m.SubgroupID] {
			continue
		}
		if _, seen := r.memberOf[m.StudentID]; !seen {
			r.memberOf[m.StudentID] = m.SubgroupID
		}
	}

	return r
}

// Known reports whether subgroup id has lessons for this subject.
func (r *Resolver) Known(subgroupID int64) bool {
	return r.known[subgroupID]
}

// Subgroups lists known subgroup ids in ascending order.
func (r *Resolver) Subgroups() []int64 {
	ids := make([]int64, 0, len(r.known))
	for id := range r.known {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GradeOwner returns the view that owns the grade. Rules, first match wins:
// a subgroup lesson decides, then an explicit known subgroup tag, then any
// lesson link means main, then membership of the student, else main.
func (r *Resolver) GradeOwner(g models.Grade) int64 {
	if g.LessonID != nil {
		if owner, ok := r.lessonOwner[*g.LessonID]; ok && owner != Main {
			return owner
		}
	}
	if g.SubgroupID != nil && r.known[*g.SubgroupID] {
		return *g.SubgroupID
	}
	if g.LessonID != nil {
		return Main
	}
	if sg, ok := r.memberOf[g.StudentID]; ok {
		return sg
	}
	return Main
}

// AssignmentOwner attributes an assignment by its lesson, then by its tag.
func (r *Resolver) AssignmentOwner(a models.Assignment) int64 {
	if owner, ok := r.lessonOwner[a.LessonID]; ok && owner != Main {
		return owner
	}
	if a.SubgroupID != nil && r.known[*a.SubgroupID] {
		return *a.SubgroupID
	}
	return Main
}

func LessonOwner(l models.Lesson) int64 {
	if l.SubgroupID != nil {
		return *l.SubgroupID
	}
	return Main
}

func (r *Resolver) GradeVisible(g models.Grade, view int64) bool {
	return r.GradeOwner(g) == view
}

// FilterGrades keeps the grades owned by view.
func (r *Resolver) FilterGrades(grades []models.Grade, view int64) []models.Grade {
	out := make([]models.Grade, 0, len(grades))
	for _, g := range grades {
		if r.GradeVisible(g, view) {
			out = append(out, g)
		}
	}
	return out
}

func (r *Resolver) FilterAssignments(assignments []models.Assignment, view int64) []models.Assignment {
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if r.AssignmentOwner(a) == view {
			out = append(out, a)
		}
	}
	return out
}

func FilterLessons(lessons []models.Lesson, view int64) []models.Lesson {
	out := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if LessonOwner(l) == view {
			out = append(out, l)
		}
	}
	return out
}
