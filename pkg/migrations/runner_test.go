package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "goose_notifications_version", VersionTable("notifications"))
}
