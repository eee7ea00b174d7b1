package enums

import "fmt"

// RepairDifficulty grades how much effort a repair takes.
type RepairDifficulty string

const (
	RepairDifficultyTest          RepairDifficulty = "test"
	RepairDifficultySimple        RepairDifficulty = "simple"
	RepairDifficultyNormal        RepairDifficulty = "normal"
	RepairDifficultyDifficult     RepairDifficulty = "difficult"
	RepairDifficultyVeryDifficult RepairDifficulty = "very_difficult"
)

var validRepairDifficulties = []RepairDifficulty{
	RepairDifficultyTest,
	RepairDifficultySimple,
	RepairDifficultyNormal,
	RepairDifficultyDifficult,
	RepairDifficultyVeryDifficult,
}

// String implements fmt.Stringer.
func (d RepairDifficulty) String() string {
	return string(d)
}

// IsValid reports whether the value is a known difficulty.
func (d RepairDifficulty) IsValid() bool {
	for _, candidate := range validRepairDifficulties {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseRepairDifficulty converts the raw string to RepairDifficulty.
func ParseRepairDifficulty(value string) (RepairDifficulty, error) {
	for _, candidate := range validRepairDifficulties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repair difficulty %q", value)
}
