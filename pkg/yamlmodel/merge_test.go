package yamlmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeRawScalarReplace(t *testing.T) {
	assert.Equal(t, "child", mergeRaw("parent", "child"))
}

func TestMergeRawMapMerge(t *testing.T) {
	a := map[string]interface{}{"driver": "virtualbox", "cpus": 1}
	b := map[string]interface{}{"cpus": 2, "memory": "1GiB"}
	merged := mergeRaw(a, b).(map[string]interface{})
	assert.Equal(t, "virtualbox", merged["driver"])
	assert.Equal(t, 2, merged["cpus"])
	assert.Equal(t, "1GiB", merged["memory"])
}

func TestMergeListByKeyUnkeyedAppendsUnique(t *testing.T) {
	a := []interface{}{"alpine", "nginx"}
	b := []interface{}{"nginx", "redis"}
	out := mergeListByKey(a, b, "")
	assert.Equal(t, []interface{}{"alpine", "nginx", "redis"}, out)
}

func TestMergeListByKeyCompositeReplacesInPlace(t *testing.T) {
	a := []interface{}{
		map[string]interface{}{"hostPort": 80, "protocol": "tcp", "guestPort": 8080},
	}
	b := []interface{}{
		map[string]interface{}{"hostPort": 80, "protocol": "tcp", "guestPort": 9090},
		map[string]interface{}{"hostPort": 443, "protocol": "tcp", "guestPort": 8443},
	}
	out := mergeListByKey(a, b, "hostPort+protocol")
	assert.Len(t, out, 2)
	first := out[0].(map[string]interface{})
	assert.Equal(t, 9090, first["guestPort"])
	second := out[1].(map[string]interface{})
	assert.Equal(t, 443, second["hostPort"])
}

func TestMergeRawIsIdempotentOnSelf(t *testing.T) {
	a := map[string]interface{}{
		"driver": "virtualbox",
		"ports": []interface{}{
			map[string]interface{}{"hostPort": 80, "protocol": "tcp", "guestPort": 8080},
		},
	}
	once := mergeRaw(map[string]interface{}{}, a)
	twice := mergeRaw(once, a)
	assert.Equal(t, once, twice)
}

func TestResolveExtendsMergesParentChain(t *testing.T) {
	all := map[string]map[string]interface{}{
		"base": {
			"driver": "virtualbox",
			"cpus":   1,
		},
		"web": {
			"extends": "base",
			"cpus":    2,
			"images":  []interface{}{"nginx"},
		},
	}
	merged, err := resolveExtends("web", all, map[string]bool{}, 0)
	assert.NoError(t, err)
	assert.Equal(t, "virtualbox", merged["driver"])
	assert.Equal(t, 2, merged["cpus"])
	assert.Equal(t, []interface{}{"nginx"}, merged["images"])
	_, hasExtends := merged["extends"]
	assert.False(t, hasExtends)
}

func TestResolveExtendsDetectsCycle(t *testing.T) {
	all := map[string]map[string]interface{}{
		"a": {"extends": "b"},
		"b": {"extends": "a"},
	}
	_, err := resolveExtends("a", all, map[string]bool{}, 0)
	assert.Error(t, err)
}

func TestResolveExtendsUnknownParent(t *testing.T) {
	all := map[string]map[string]interface{}{
		"web": {"extends": "missing"},
	}
	_, err := resolveExtends("web", all, map[string]bool{}, 0)
	assert.Error(t, err)
}

func TestResolveExtendsMultipleParents(t *testing.T) {
	all := map[string]map[string]interface{}{
		"net": {"labels": map[string]interface{}{"tier": "edge"}},
		"big": {"cpus": 4},
		"web": {
			"extends": []interface{}{"net", "big"},
			"driver":  "virtualbox",
		},
	}
	merged, err := resolveExtends("web", all, map[string]bool{}, 0)
	assert.NoError(t, err)
	assert.Equal(t, 4, merged["cpus"])
	assert.Equal(t, "virtualbox", merged["driver"])
	labels := merged["labels"].(map[string]interface{})
	assert.Equal(t, "edge", labels["tier"])
}
