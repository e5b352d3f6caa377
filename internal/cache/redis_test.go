package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "dentalhub:insights:42", Key("insights", "42"))
	assert.Equal(t, "dentalhub:", Key())
}
