package share

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameIsDeterministic(t *testing.T) {
	a := Name("/host/data", "mycluster-master")
	b := Name("/host/data", "mycluster-master")
	assert.Equal(t, a, b)
}

func TestNameDistinguishesHostPathAndMachine(t *testing.T) {
	a := Name("/host/data", "mycluster-master")
	b := Name("/host/other", "mycluster-master")
	c := Name("/host/data", "mycluster-worker")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNameHasShareFolderPrefix(t *testing.T) {
	assert.Regexp(t, `^sf-[0-9a-f]{8}$`, Name("/x", "y"))
}
