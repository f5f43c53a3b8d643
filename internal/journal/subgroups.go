package journal

import (
	"context"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

func (e *Engine) CreateSubgroup(ctx context.Context, ns models.NewSubgroup) (*models.Subgroup, error) {
	if err := ns.Validate(); err != nil {
		return nil, e.done("create subgroup", invalidInput(err))
	}

	sg := &models.Subgroup{
		Name:     ns.Name,
		ClassID:  ns.ClassID,
		SchoolID: ns.SchoolID,
	}
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		if err := q.CreateSubgroup(ctx, sg); err != nil {
			return err
		}
		return q.SetSubgroupMembers(ctx, sg.ID, ns.MemberIDs)
	})
	if err != nil {
		return nil, e.done("create subgroup", err)
	}
	sg.MemberIDs = uniqueSorted(ns.MemberIDs)
	return sg, nil
}

func (e *Engine) ListSubgroups(ctx context.Context, classID int64) ([]models.Subgroup, error) {
	var subgroups []models.Subgroup
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		subgroups, err = q.ListSubgroups(ctx, classID)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(subgroups))
		for _, sg := range subgroups {
			ids = append(ids, sg.ID)
		}
		members, err := q.ListSubgroupMembers(ctx, ids)
		if err != nil {
			return err
		}

		byGroup := make(map[int64][]int64)
		for _, m := range members {
			byGroup[m.SubgroupID] = append(byGroup[m.SubgroupID], m.StudentID)
		}
		for i := range subgroups {
			subgroups[i].MemberIDs = byGroup[subgroups[i].ID]
			if subgroups[i].MemberIDs == nil {
				subgroups[i].MemberIDs = []int64{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list subgroups", err)
	}
	return subgroups, nil
}

// SetSubgroupMembers replaces the member list of a subgroup.
func (e *Engine) SetSubgroupMembers(ctx context.Context, subgroupID int64, studentIDs []int64) (*models.Subgroup, error) {
	for _, id := range studentIDs {
		if id <= 0 {
			return nil, e.done("set subgroup members", fieldError("studentIds", "must contain positive ids"))
		}
	}

	var sg *models.Subgroup
	err := e.store.InTx(ctx, false, func(q store.Queries) error {
		var err error
		sg, err = q.GetSubgroup(ctx, subgroupID)
		if err != nil {
			return err
		}
		if sg == nil {
			return notFound("subgroup", subgroupID)
		}
		return q.SetSubgroupMembers(ctx, subgroupID, studentIDs)
	})
	if err != nil {
		return nil, e.done("set subgroup members", err)
	}
	sg.MemberIDs = uniqueSorted(studentIDs)
	return sg, nil
}

// SetGradingSystem picks the grading system of a class.
func (e *Engine) SetGradingSystem(ctx context.Context, classID int64, system string) (*models.ClassSettings, error) {
	if classID <= 0 {
		return nil, e.done("set grading system", fieldError("classId", "must be positive"))
	}
	gs, err := scoring.ParseGradingSystem(system)
	if err != nil {
		return nil, e.done("set grading system", fieldError("gradingSystem", "must be one of ordinal cumulative"))
	}

	settings := models.ClassSettings{ClassID: classID, GradingSystem: string(gs)}
	err = e.store.InTx(ctx, false, func(q store.Queries) error {
		return q.SetClassSettings(ctx, settings)
	})
	if err != nil {
		return nil, e.done("set grading system", err)
	}
	return &settings, nil
}

// GradingSystem returns the system in effect for a class, configured or default.
func (e *Engine) GradingSystem(ctx context.Context, classID int64) (scoring.GradingSystem, error) {
	var system scoring.GradingSystem
	err := e.store.InTx(ctx, true, func(q store.Queries) error {
		var err error
		system, err = e.gradingSystem(ctx, q, classID)
		return err
	})
	if err != nil {
		return "", e.done("get grading system", err)
	}
	return system, nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sortInt64s(out)
	return out
}
