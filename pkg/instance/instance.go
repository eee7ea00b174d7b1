package instance

import (
	"os"
	"strings"
)

const envInstanceID = "WORKSHOP_INSTANCE_ID"

// ID identifies the running process in logs. It prefers WORKSHOP_INSTANCE_ID,
// then the platform DYNO name, then the hostname.
func ID() string {
	for _, key := range []string{envInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
