package marketplace

import (
	"fmt"

	"lendhub/internal/models"
)

// GradeBand maps every score at or above MinScore to Grade.
type GradeBand struct {
	MinScore int    `mapstructure:"min_score" json:"min_score"`
	Grade    string `mapstructure:"grade" json:"grade"`
}

// GradeTable is an ordered list of bands, highest MinScore first.
type GradeTable []GradeBand

// DefaultGradeTable grades >=800 A, >=700 B, >=600 C, otherwise D.
var DefaultGradeTable = GradeTable{
	{MinScore: 800, Grade: "A"},
	{MinScore: 700, Grade: "B"},
	{MinScore: 600, Grade: "C"},
	{MinScore: models.MinMerchantScore, Grade: "D"},
}

// Grade returns the grade of the first band whose minimum score is met.
// Scores below every band fall into the last band.
func (t GradeTable) Grade(score int) string {
	if len(t) == 0 {
		t = DefaultGradeTable
	}
	for _, band := range t {
		if score >= band.MinScore {
			return band.Grade
		}
	}
	return t[len(t)-1].Grade
}

// Validate checks that bands are strictly descending and named.
func (t GradeTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("grade table is empty")
	}
	for i, band := range t {
		if band.Grade == "" {
			return fmt.Errorf("grade band %d has no grade", i)
		}
		if i > 0 && band.MinScore >= t[i-1].MinScore {
			return fmt.Errorf("grade band %q (min %d) must be below %q (min %d)",
				band.Grade, band.MinScore, t[i-1].Grade, t[i-1].MinScore)
		}
	}
	return nil
}
