package roster

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/student-roster/internal/notify"
	"github.com/aanand-mishra/student-roster/internal/types"
)

// Skipped is an imported row that was not stored. Row is 1-based and
// counts data rows only (the header is not row 1).
type Skipped struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported []types.Student `json:"imported"`
	Skipped  []Skipped       `json:"skipped"`
}

// Import stores each row that passes check, one at a time. check may
// normalise the row in place before it is stored. Rows stored
// before a failure stay stored. A single summary notification is sent
// instead of one per row.
func (r *Roster) Import(ctx context.Context, owner string, rows []types.StudentInput, check func(*types.StudentInput) error) ImportResult {
	res := ImportResult{
		Imported: make([]types.Student, 0, len(rows)),
		Skipped:  []Skipped{},
	}

	for i, in := range rows {
		if check != nil {
			if err := check(&in); err != nil {
				res.Skipped = append(res.Skipped, Skipped{Row: i + 1, Name: in.Name, Reason: err.Error()})
				continue
			}
		}
		s, err := r.add(ctx, owner, in, nil)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Row: i + 1, Name: in.Name, Reason: err.Error()})
			continue
		}
		res.Imported = append(res.Imported, s)
	}

	switch {
	case len(res.Imported) == 0 && len(rows) > 0:
		r.notify(ctx, owner, notify.SeverityError, "Import failed",
			fmt.Sprintf("None of the %d rows could be imported.", len(rows)))
	case len(res.Imported) > 0:
		r.notify(ctx, owner, notify.SeverityInfo, "Import finished",
			fmt.Sprintf("%d students imported, %d skipped.", len(res.Imported), len(res.Skipped)))
		r.checkAchievements(ctx, owner)
	}
	return res
}
