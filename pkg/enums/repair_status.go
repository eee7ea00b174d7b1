package enums

import "fmt"

// RepairStatus tracks where a repair ticket sits in the workshop lifecycle.
type RepairStatus string

const (
	RepairStatusNew           RepairStatus = "new"
	RepairStatusAwaitingParts RepairStatus = "awaiting_parts"
	RepairStatusInProgress    RepairStatus = "in_progress"
	RepairStatusCompleted     RepairStatus = "completed"
	RepairStatusClosed        RepairStatus = "closed"
)

var validRepairStatuses = []RepairStatus{
	RepairStatusNew,
	RepairStatusAwaitingParts,
	RepairStatusInProgress,
	RepairStatusCompleted,
	RepairStatusClosed,
}

var repairStatusLabels = map[RepairStatus]string{
	RepairStatusNew:           "New",
	RepairStatusAwaitingParts: "Awaiting Parts",
	RepairStatusInProgress:    "In Progress",
	RepairStatusCompleted:     "Completed",
	RepairStatusClosed:        "Closed",
}

// String implements fmt.Stringer.
func (s RepairStatus) String() string {
	return string(s)
}

// Label returns the human readable status used in notifications.
func (s RepairStatus) Label() string {
	if label, ok := repairStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether the value is a known repair status.
func (s RepairStatus) IsValid() bool {
	for _, candidate := range validRepairStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether entering the status writes parts off.
func (s RepairStatus) IsTerminal() bool {
	return s == RepairStatusCompleted || s == RepairStatusClosed
}

// ParseRepairStatus converts the raw string to RepairStatus.
func ParseRepairStatus(value string) (RepairStatus, error) {
	for _, candidate := range validRepairStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repair status %q", value)
}
