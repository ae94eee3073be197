package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.13.1", "1.13.1", 0},
		{"1.13.1", "1.13.2", -1},
		{"1.13.2", "1.13.1", 1},
		{"1.9.0", "1.10.0", -1},
		{"17.09.0-ce", "17.9.0", 0},
		{"1.0", "1.0.0", 0},
		{"2.0.0", "1.9.9", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Compare(c.a, c.b), "Compare(%q, %q)", c.a, c.b)
	}
}

func TestLessThan(t *testing.T) {
	assert.True(t, LessThan("1.12.0", "1.13.0"))
	assert.False(t, LessThan("1.13.0", "1.12.0"))
}
