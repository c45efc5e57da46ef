package tariff

import (
	"errors"
	"fmt"
	"time"

	"github.com/chargecost/chargecost/pkg/types"
)

// ErrMissingBaseline is returned by Compile when a tier ceiling is a
// baseline multiple but the record carries no baseline quantity.
var ErrMissingBaseline = errors.New("baseline-relative tier ceiling without a baseline quantity")

// ScheduleGapError reports a (month, day type, hour) the rate cannot price,
// either because the schedule matrix is missing the cell or because the cell
// names a period with no ladder. Evaluation of the rate aborts; a gap is
// never defaulted.
type ScheduleGapError struct {
	Month time.Month
	Day   types.DayType
	Hour  int
}

func (e *ScheduleGapError) Error() string {
	return fmt.Sprintf("schedule cannot price %s %s hour %d", e.Month, e.Day, e.Hour)
}

// LadderInvariantError reports a malformed tier ladder.
type LadderInvariantError struct {
	Period int
	Tier   int
	Reason string
}

func (e *LadderInvariantError) Error() string {
	return fmt.Sprintf("period %d tier %d: %s", e.Period, e.Tier, e.Reason)
}
