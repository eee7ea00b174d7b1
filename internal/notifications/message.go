package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
)

// ShouldNotify reports whether entering status is announced.
func ShouldNotify(status enums.RepairStatus) bool {
	switch status {
	case enums.RepairStatusAwaitingParts, enums.RepairStatusCompleted, enums.RepairStatusClosed:
		return true
	default:
		return false
	}
}

// StatusChangeMessage renders the announcement for a repair that just moved
// into its current status. Usages must be preloaded with their parts for the
// awaiting list.
func StatusChangeMessage(repair *models.Repair) string {
	device := "unknown device"
	if repair.Device != nil {
		device = repair.Device.Name
	}
	serial := repair.SerialNumber
	if serial == "" {
		serial = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Repair #%s | %s | SN: %s | Status changed to %s",
		repair.ID, device, serial, repair.Status.Label())

	if repair.Status == enums.RepairStatusAwaitingParts {
		if pending := pendingParts(repair.Usages); pending != "" {
			b.WriteString(" | Awaiting: ")
			b.WriteString(pending)
		}
	}
	return b.String()
}

// LowStockMessage renders the periodic low stock summary.
func LowStockMessage(parts []models.Part) string {
	if len(parts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, fmt.Sprintf("%s (%s): available %d, min %d",
			part.Code, part.Name, part.AvailableStock(), part.MinStock))
	}
	return fmt.Sprintf("Low stock: %d part(s)\n%s", len(parts), strings.Join(lines, "\n"))
}

func pendingParts(usages []models.RepairPartUsage) string {
	items := make([]string, 0, len(usages))
	for _, usage := range usages {
		if usage.WrittenOff {
			continue
		}
		code := usage.PartID.String()
		if usage.Part != nil {
			code = usage.Part.Code
		}
		items = append(items, fmt.Sprintf("%s x%d", code, usage.Quantity))
	}
	return strings.Join(items, ", ")
}
