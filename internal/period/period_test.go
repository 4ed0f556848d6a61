package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsToken(t *testing.T) {
	valid := []string{"QNA1", "QNA9", "QNA10", "QNA24", " qna3 "}
	for _, v := range valid {
		assert.True(t, IsToken(v), "expected %q to be a valid token", v)
	}

	invalid := []string{"", "QNA0", "QNA25", "QNA100", "QNA", "Q1", "RFC1"}
	for _, v := range invalid {
		assert.False(t, IsToken(v), "expected %q to be invalid", v)
	}
}

func TestNewSetDropsInvalidTokens(t *testing.T) {
	s := NewSet("QNA1", "qna2", "QNA25", "bogus", "QNA1")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("QNA1"))
	assert.True(t, s.Contains("QNA2"))
	assert.False(t, s.Contains("QNA25"))
}

func TestIntersectAndUnion(t *testing.T) {
	a := NewSet("QNA1", "QNA2")
	b := NewSet("QNA2", "QNA3")

	assert.Equal(t, []string{"QNA2"}, a.Intersect(b).Sorted())
	assert.Equal(t, []string{"QNA1", "QNA2", "QNA3"}, a.Union(b).Sorted())
	assert.Equal(t, 0, a.Intersect(NewSet("QNA5")).Len())
}

func TestSortedIsNumeric(t *testing.T) {
	s := NewSet("QNA10", "QNA2", "QNA1", "QNA24")
	assert.Equal(t, []string{"QNA1", "QNA2", "QNA10", "QNA24"}, s.Sorted())
}

func TestEqual(t *testing.T) {
	assert.True(t, NewSet("QNA1", "QNA2").Equal(NewSet("QNA2", "QNA1")))
	assert.False(t, NewSet("QNA1").Equal(NewSet("QNA2")))
	assert.False(t, NewSet("QNA1").Equal(NewSet("QNA1", "QNA2")))
}
