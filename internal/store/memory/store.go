// Package memory keeps the whole journal in process memory. Used by tests
// and by the memory:// DSN for demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

type state struct {
	lessons     map[int64]models.Lesson
	assignments map[int64]models.Assignment
	grades      map[int64]models.Grade
	attendance  map[int64]models.Attendance
	subgroups   map[int64]models.Subgroup
	members     map[int64]map[int64]bool
	settings    map[int64]models.ClassSettings
	nextID      int64
}

func newState() *state {
	return &state{
		lessons:     make(map[int64]models.Lesson),
		assignments: make(map[int64]models.Assignment),
		grades:      make(map[int64]models.Grade),
		attendance:  make(map[int64]models.Attendance),
		subgroups:   make(map[int64]models.Subgroup),
		members:     make(map[int64]map[int64]bool),
		settings:    make(map[int64]models.ClassSettings),
	}
}

func (s *state) clone() *state {
	c := &state{
		lessons:     make(map[int64]models.Lesson, len(s.lessons)),
		assignments: make(map[int64]models.Assignment, len(s.assignments)),
		grades:      make(map[int64]models.Grade, len(s.grades)),
		attendance:  make(map[int64]models.Attendance, len(s.attendance)),
		subgroups:   make(map[int64]models.Subgroup, len(s.subgroups)),
		members:     make(map[int64]map[int64]bool, len(s.members)),
		settings:    make(map[int64]models.ClassSettings, len(s.settings)),
		nextID:      s.nextID,
	}
	for k, v := range s.lessons {
		c.lessons[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.grades {
		c.grades[k] = v
	}
	for k, v := range s.attendance {
		c.attendance[k] = v
	}
	for k, v := range s.subgroups {
		c.subgroups[k] = v
	}
	for k, v := range s.members {
		set := make(map[int64]bool, len(v))
		for id := range v {
			set[id] = true
		}
		c.members[k] = set
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

func (s *state) newID() int64 {
	s.nextID++
	return s.nextID
}

// MemoryStore applies a transaction to a private copy and swaps it in on
// success, so a failed transaction leaves no trace.
type MemoryStore struct {
	mu    sync.RWMutex
	state *state
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newState()}
}

func (m *MemoryStore) Close() error {
	return nil
}

// ApplyMigrations is a no-op, there is no schema to create.
func (m *MemoryStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MemoryStore) InTx(ctx context.Context, readOnly bool, fn func(q store.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if readOnly {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return fn(&queries{s: m.state, readOnly: true})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&queries{s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type queries struct {
	s        *state
	readOnly bool
}

var _ store.Queries = (*queries)(nil)

func ptrEq(p *int64, v int64) bool {
	return p != nil && *p == v
}

func (q *queries) GetLesson(ctx context.Context, id int64) (*models.Lesson, error) {
	l, ok := q.s.lessons[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (q *queries) ListLessons(ctx context.Context, f models.LessonFilter) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range q.s.lessons {
		switch {
		case f.ID != 0 && l.ID != f.ID,
			f.ClassID != 0 && l.ClassID != f.ClassID,
			f.SubjectID != 0 && l.SubjectID != f.SubjectID,
			f.TeacherID != 0 && l.TeacherID != f.TeacherID,
			f.SubgroupID != nil && !ptrEq(l.SubgroupID, *f.SubgroupID),
			f.DateFrom != "" && l.Date < f.DateFrom,
			f.DateTo != "" && l.Date > f.DateTo:
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartsAt != out[j].StartsAt {
			return out[i].StartsAt < out[j].StartsAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (q *queries) CreateLesson(ctx context.Context, l *models.Lesson) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	l.ID = q.s.newID()
	q.s.lessons[l.ID] = *l
	return nil
}

func (q *queries) UpdateLessonStatus(ctx context.Context, id int64, status models.LessonStatus) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	if l, ok := q.s.lessons[id]; ok {
		l.Status = status
		q.s.lessons[id] = l
	}
	return nil
}

func (q *queries) DeleteLesson(ctx context.Context, id int64) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	delete(q.s.lessons, id)
	return nil
}

func (q *queries) CountLessonRefs(ctx context.Context, id int64) (store.LessonRefs, error) {
	var refs store.LessonRefs
	for _, a := range q.s.assignments {
		if a.LessonID == id {
			refs.Assignments++
		}
	}
	for _, g := range q.s.grades {
		if ptrEq(g.LessonID, id) {
			refs.Grades++
		}
	}
	for _, a := range q.s.attendance {
		if a.LessonID == id {
			refs.Attendance++
		}
	}
	return refs, nil
}

func (q *queries) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	a, ok := q.s.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (q *queries) ListAssignments(ctx context.Context, f models.AssignmentFilter) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range q.s.assignments {
		switch {
		case f.LessonID != 0 && a.LessonID != f.LessonID,
			f.ClassID != 0 && a.ClassID != f.ClassID,
			f.SubjectID != 0 && a.SubjectID != f.SubjectID:
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	a.ID = q.s.newID()
	q.s.assignments[a.ID] = *a
	return nil
}

func (q *queries) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	cur, ok := q.s.assignments[a.ID]
	if !ok {
		return nil
	}
	cur.Type = a.Type
	cur.MaxScore = a.MaxScore
	cur.Description = a.Description
	cur.PlannedFor = a.PlannedFor
	q.s.assignments[a.ID] = cur
	return nil
}

func (q *queries) DeleteAssignment(ctx context.Context, id int64) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	delete(q.s.assignments, id)
	// mirrors ON DELETE CASCADE
	for gid, g := range q.s.grades {
		if ptrEq(g.AssignmentID, id) {
			delete(q.s.grades, gid)
		}
	}
	return nil
}

func (q *queries) GetGrade(ctx context.Context, id int64) (*models.Grade, error) {
	g, ok := q.s.grades[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (q *queries) FindGrade(ctx context.Context, studentID, assignmentID int64) (*models.Grade, error) {
	var found *models.Grade
	for _, g := range q.s.grades {
		if g.StudentID != studentID || !ptrEq(g.AssignmentID, assignmentID) {
			continue
		}
		if found == nil || g.ID < found.ID {
			g := g
			found = &g
		}
	}
	return found, nil
}

func (q *queries) ListGrades(ctx context.Context, f models.GradeFilter) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range q.s.grades {
		switch {
		case f.ClassID != 0 && g.ClassID != f.ClassID,
			f.SubjectID != 0 && g.SubjectID != f.SubjectID,
			f.StudentID != 0 && g.StudentID != f.StudentID,
			f.LessonID != 0 && !ptrEq(g.LessonID, f.LessonID),
			f.AssignmentID != 0 && !ptrEq(g.AssignmentID, f.AssignmentID):
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) CreateGrade(ctx context.Context, g *models.Grade) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	g.ID = q.s.newID()
	q.s.grades[g.ID] = *g
	return nil
}

func (q *queries) UpdateGrade(ctx context.Context, g *models.Grade) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	cur, ok := q.s.grades[g.ID]
	if !ok {
		return nil
	}
	cur.Value = g.Value
	cur.GradeType = g.GradeType
	cur.Comment = g.Comment
	q.s.grades[g.ID] = cur
	return nil
}

func (q *queries) DeleteGrade(ctx context.Context, id int64) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	delete(q.s.grades, id)
	return nil
}

func (q *queries) DeleteGradesByAssignment(ctx context.Context, assignmentID int64) (int64, error) {
	if q.readOnly {
		return 0, store.ErrReadOnly
	}
	var n int64
	for id, g := range q.s.grades {
		if ptrEq(g.AssignmentID, assignmentID) {
			delete(q.s.grades, id)
			n++
		}
	}
	return n, nil
}

func (q *queries) UpsertAttendance(ctx context.Context, a *models.Attendance) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	for id, cur := range q.s.attendance {
		if cur.StudentID == a.StudentID && cur.LessonID == a.LessonID {
			cur.Status = a.Status
			cur.Comment = a.Comment
			cur.Date = a.Date
			q.s.attendance[id] = cur
			a.ID = id
			return nil
		}
	}
	a.ID = q.s.newID()
	rec := *a
	rec.Defaulted = false
	q.s.attendance[a.ID] = rec
	return nil
}

func (q *queries) ListAttendance(ctx context.Context, lessonID int64) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, a := range q.s.attendance {
		if a.LessonID == lessonID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (q *queries) GetClassSettings(ctx context.Context, classID int64) (*models.ClassSettings, error) {
	cs, ok := q.s.settings[classID]
	if !ok {
		return nil, nil
	}
	return &cs, nil
}

func (q *queries) SetClassSettings(ctx context.Context, cs models.ClassSettings) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	q.s.settings[cs.ClassID] = cs
	return nil
}

func (q *queries) CreateSubgroup(ctx context.Context, sg *models.Subgroup) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	sg.ID = q.s.newID()
	rec := *sg
	rec.MemberIDs = nil
	q.s.subgroups[sg.ID] = rec
	return nil
}

func (q *queries) GetSubgroup(ctx context.Context, id int64) (*models.Subgroup, error) {
	sg, ok := q.s.subgroups[id]
	if !ok {
		return nil, nil
	}
	return &sg, nil
}

func (q *queries) ListSubgroups(ctx context.Context, classID int64) ([]models.Subgroup, error) {
	var out []models.Subgroup
	for _, sg := range q.s.subgroups {
		if classID != 0 && sg.ClassID != classID {
			continue
		}
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *queries) SetSubgroupMembers(ctx context.Context, subgroupID int64, studentIDs []int64) error {
	if q.readOnly {
		return store.ErrReadOnly
	}
	set := make(map[int64]bool, len(studentIDs))
	for _, id := range studentIDs {
		set[id] = true
	}
	q.s.members[subgroupID] = set
	return nil
}

func (q *queries) ListSubgroupMembers(ctx context.Context, subgroupIDs []int64) ([]models.SubgroupMember, error) {
	var out []models.SubgroupMember
	for _, sgID := range subgroupIDs {
		for studentID := range q.s.members[sgID] {
			out = append(out, models.SubgroupMember{SubgroupID: sgID, StudentID: studentID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubgroupID != out[j].SubgroupID {
			return out[i].SubgroupID < out[j].SubgroupID
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}
