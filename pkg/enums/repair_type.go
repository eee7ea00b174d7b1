package enums

import "fmt"

// RepairType is the optional kind of work performed.
type RepairType string

const (
	RepairTypeReplacement RepairType = "replacement"
	RepairTypeCleaning    RepairType = "cleaning"
	RepairTypeDiagnostics RepairType = "diagnostics"
	RepairTypeFirmware    RepairType = "firmware"
)

var validRepairTypes = []RepairType{
	RepairTypeReplacement,
	RepairTypeCleaning,
	RepairTypeDiagnostics,
	RepairTypeFirmware,
}

func (t RepairType) String() string {
	return string(t)
}

func (t RepairType) IsValid() bool {
	for _, candidate := range validRepairTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRepairType converts the raw string to RepairType.
func ParseRepairType(value string) (RepairType, error) {
	for _, candidate := range validRepairTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repair type %q", value)
}
