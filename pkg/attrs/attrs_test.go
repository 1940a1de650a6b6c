package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	kv := []any{"price", uint64(5), "verdict", "approved", 7, "skipped"}
	assert.Equal(t, "approved", ExtractString(kv, "verdict"))
	assert.Equal(t, "", ExtractString(kv, "price"), "non-string values are ignored")
	assert.Equal(t, "", ExtractString(kv, "missing"))
}

func TestToStringMap(t *testing.T) {
	got := ToStringMap([]any{"price", uint64(5), "listed", false, 3, "x", "dangling"})
	assert.Equal(t, map[string]string{"price": "5", "listed": "false"}, got)
	assert.Nil(t, ToStringMap(nil))
}
