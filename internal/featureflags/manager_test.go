package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("c", 1))
	assert.True(t, m.Enabled("e", 1))
	assert.False(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("d", 1))
	assert.False(t, m.Enabled("f", 1))
}

func TestEnabled_BareName(t *testing.T) {
	m := NewManager("ai_summary")

	assert.True(t, m.Enabled(AISummary, 0))
	assert.True(t, m.Declared(AISummary))
	assert.False(t, m.Enabled("other", 1))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")
}

func TestDeclared(t *testing.T) {
	m := NewManager("a=off,b=0%,c=10%,d=junk")

	assert.False(t, m.Declared("a"))
	assert.False(t, m.Declared("b"))
	assert.True(t, m.Declared("c"))
	assert.False(t, m.Declared("d"))
	assert.False(t, m.Declared("missing"))

	var nilManager *Manager
	assert.False(t, nilManager.Declared("a"))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bare ,x=on, y = 20% ,z=off, =on ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"bare": "on", "x": "on", "y": "20%", "z": "off"}, raw)
	assert.Len(t, m.Snapshot(123), 4)
}
