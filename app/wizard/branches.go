package wizard

import (
	"fmt"

	"github.com/vibast-solutions/ms-go-onboarding/app/entity"
)

// BranchRegistry owns the ordered branch slots of a tenant-to-be. Indices are
// always 0..count-1; growing appends default-named branches, shrinking
// truncates.
type BranchRegistry struct {
	branches      []entity.Branch
	includedCount int32
}

// NewBranchRegistry starts with one default-named branch per slot the plan
// includes (minimum one).
func NewBranchRegistry(includedCount int32) *BranchRegistry {
	if includedCount < 1 {
		includedCount = 1
	}
	r := &BranchRegistry{includedCount: includedCount}
	for i := 0; i < int(includedCount); i++ {
		r.branches = append(r.branches, entity.Branch{
			Index:          i,
			Name:           defaultBranchName(i),
			IncludedInPlan: true,
		})
	}
	return r
}

func (r *BranchRegistry) Count() int {
	return len(r.branches)
}

// Branches returns the ordered slots as a copy.
func (r *BranchRegistry) Branches() []entity.Branch {
	out := make([]entity.Branch, len(r.branches))
	copy(out, r.branches)
	return out
}

// SetBranchCount grows or truncates the slot list. Callers that hold addon
// selections must re-sync them after truncation so no selection references a
// removed index.
func (r *BranchRegistry) SetBranchCount(n int) error {
	if n < 1 {
		return ErrInvalidBranchCount
	}
	if n <= len(r.branches) {
		r.branches = r.branches[:n]
		return nil
	}
	for i := len(r.branches); i < n; i++ {
		r.branches = append(r.branches, entity.Branch{
			Index:          i,
			Name:           defaultBranchName(i),
			IncludedInPlan: i < int(r.includedCount),
		})
	}
	return nil
}

func (r *BranchRegistry) RenameBranch(index int, name string) error {
	if index < 0 || index >= len(r.branches) {
		return ErrBranchIndexOutOfRange
	}
	r.branches[index].Name = name
	return nil
}

// SetBranches restores the slot list from a persisted snapshot. Indices are
// renumbered to stay contiguous.
func (r *BranchRegistry) SetBranches(branches []entity.Branch) {
	r.branches = r.branches[:0]
	for i, b := range branches {
		b.Index = i
		if b.Name == "" {
			b.Name = defaultBranchName(i)
		}
		r.branches = append(r.branches, b)
	}
	if len(r.branches) == 0 {
		r.branches = NewBranchRegistry(r.includedCount).branches
	}
}

func defaultBranchName(index int) string {
	return fmt.Sprintf("Branch %d", index+1)
}
