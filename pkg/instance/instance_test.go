package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPrefersExplicitSetting(t *testing.T) {
	t.Setenv(envInstanceID, "cron-1")
	t.Setenv("DYNO", "worker.1")
	assert.Equal(t, "cron-1", ID())
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv(envInstanceID, " ")
	t.Setenv("DYNO", "web.2")
	assert.Equal(t, "web.2", ID())
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv(envInstanceID, "")
	t.Setenv("DYNO", "")
	assert.NotEmpty(t, ID())
}
