package attribution

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

func id(v int64) *int64 { return &v }

// lessons 1,2 are main; 3 belongs to subgroup 10; 4 to subgroup 20
func fixture() *Resolver {
	lessons := []models.Lesson{
		{ID: 1},
		{ID: 2},
		{ID: 3, SubgroupID: id(10)},
		{ID: 4, SubgroupID: id(20)},
	}
	members := []models.SubgroupMember{
		{SubgroupID: 20, StudentID: 7},
		{SubgroupID: 10, StudentID: 7},
		{SubgroupID: 10, StudentID: 8},
		{SubgroupID: 99, StudentID: 9},
	}
	return NewResolver(lessons, members)
}

func TestResolver_GradeOwner(t *testing.T) {
	r := fixture()

	testCases := []struct {
		name  string
		grade models.Grade
		want  int64
	}{
		{"subgroup lesson", models.Grade{StudentID: 1, LessonID: id(3)}, 10},
		{"subgroup lesson wins over tag", models.Grade{StudentID: 1, LessonID: id(3), SubgroupID: id(20)}, 10},
		{"main lesson without tag", models.Grade{StudentID: 7, LessonID: id(1)}, Main},
		{"main lesson with known tag", models.Grade{StudentID: 1, LessonID: id(1), SubgroupID: id(20)}, 20},
		{"unknown tag on main lesson", models.Grade{StudentID: 1, LessonID: id(1), SubgroupID: id(99)}, Main},
		{"tag without lesson", models.Grade{StudentID: 1, SubgroupID: id(10)}, 10},
		{"unknown lesson", models.Grade{StudentID: 8, LessonID: id(555)}, Main},
		{"member without lesson or tag", models.Grade{StudentID: 8}, 10},
		{"member of several picks lowest", models.Grade{StudentID: 7}, 10},
		{"member of unknown subgroup only", models.Grade{StudentID: 9}, Main},
		{"no links at all", models.Grade{StudentID: 1}, Main},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.GradeOwner(tc.grade))
		})
	}
}

func TestResolver_AssignmentOwner(t *testing.T) {
	r := fixture()

	assert.Equal(t, int64(10), r.AssignmentOwner(models.Assignment{LessonID: 3}))
	assert.Equal(t, Main, r.AssignmentOwner(models.Assignment{LessonID: 1}))
	assert.Equal(t, int64(20), r.AssignmentOwner(models.Assignment{LessonID: 1, SubgroupID: id(20)}))
	assert.Equal(t, Main, r.AssignmentOwner(models.Assignment{LessonID: 2, SubgroupID: id(99)}))
}

func TestResolver_Subgroups(t *testing.T) {
	r := fixture()
	assert.Equal(t, []int64{10, 20}, r.Subgroups())
	assert.True(t, r.Known(20))
	assert.False(t, r.Known(99))
}

func TestFilterLessons(t *testing.T) {
	lessons := []models.Lesson{{ID: 1}, {ID: 3, SubgroupID: id(10)}}
	assert.Len(t, FilterLessons(lessons, Main), 1)
	assert.Equal(t, int64(3), FilterLessons(lessons, 10)[0].ID)
}

// Every grade lands in exactly one view: views are pairwise disjoint and
// their union is the whole set.
func TestResolver_GradesArePartitioned(t *testing.T) {
	r := fixture()
	rng := rand.New(rand.NewSource(42))

	pick := func(opts ...*int64) *int64 { return opts[rng.Intn(len(opts))] }

	grades := make([]models.Grade, 0, 500)
	for i := 0; i < 500; i++ {
		grades = append(grades, models.Grade{
			ID:         int64(i + 1),
			StudentID:  int64(rng.Intn(10) + 1),
			LessonID:   pick(nil, id(1), id(2), id(3), id(4), id(555)),
			SubgroupID: pick(nil, id(10), id(20), id(99)),
		})
	}

	views := append([]int64{Main}, r.Subgroups()...)
	seen := make(map[int64]int64, len(grades))
	for _, view := range views {
		for _, g := range r.FilterGrades(grades, view) {
			prev, dup := seen[g.ID]
			require.False(t, dup, "grade %d visible in %d and %d", g.ID, prev, view)
			seen[g.ID] = view
		}
	}
	assert.Len(t, seen, len(grades))
}
