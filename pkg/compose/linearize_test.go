package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLinearizeBaclinScenario encodes the spec §8 worked example: a base
// "web" service extended by "important_web" in the same file, differing
// only in cpu_shares, with labels, ports, volumes and environment merged.
func TestLinearizeBaclinScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docker-compose.yml", `
version: "2"
services:
  web:
    image: nginx
    ports:
      - "8000:8000"
    volumes:
      - "/data"
    environment:
      - "TEST=34"
      - "DEBUG=1"
    labels:
      se.sics.copyright: "Emmanuel Frecon"
      se.sics.organisation: "RISE SICS"
      se.sics.application: "Web"
    cpu_shares: 5
  important_web:
    extends:
      service: web
    cpu_shares: 10
`)

	doc, order, err := Linearize(path)
	require.NoError(t, err)

	assert.Equal(t, "2", doc["version"])
	assert.Equal(t, []string{"web", "important_web"}, order.Services, "services stay in source order, not alphabetical")
	services := doc["services"].(map[string]interface{})

	web := services["web"].(map[string]interface{})
	assert.NotContains(t, web, "extends")
	assert.Equal(t, "nginx", web["image"])
	assert.EqualValues(t, 5, web["cpu_shares"])

	important := services["important_web"].(map[string]interface{})
	assert.NotContains(t, important, "extends")
	assert.Equal(t, "nginx", important["image"])
	assert.EqualValues(t, 10, important["cpu_shares"])
	assert.ElementsMatch(t, []interface{}{"8000:8000"}, important["ports"])
	assert.ElementsMatch(t, []interface{}{"/data"}, important["volumes"])
	assert.ElementsMatch(t, []interface{}{"TEST=34", "DEBUG=1"}, important["environment"])

	labels := important["labels"].(map[string]interface{})
	assert.Equal(t, "Emmanuel Frecon", labels["se.sics.copyright"])
	assert.Equal(t, "RISE SICS", labels["se.sics.organisation"])
	assert.Equal(t, "Web", labels["se.sics.application"])

	// important_web only overrides cpu_shares: the merged key order keeps
	// web's other fields in web's order, with cpu_shares moved to where
	// important_web itself set it (spec §4.2).
	assert.Equal(t,
		[]string{"image", "ports", "volumes", "environment", "labels", "cpu_shares"},
		order.Keys["important_web"])

	out, err := Marshal(doc, order)
	require.NoError(t, err)
	webIdx := indexOf(t, string(out), "web:")
	importantIdx := indexOf(t, string(out), "important_web:")
	assert.Less(t, webIdx, importantIdx, "web must be marshalled before important_web (BACLIN scenario, spec §8 item 1)")
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := -1
	for idx := 0; idx+len(needle) <= len(haystack); idx++ {
		if haystack[idx:idx+len(needle)] == needle {
			i = idx
			break
		}
	}
	require.GreaterOrEqual(t, i, 0, "expected to find %q in marshalled output", needle)
	return i
}

func TestLinearizeCrossFileExtends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yml", `
services:
  common:
    image: base-image
    links:
      - db
    environment:
      - "FOO=bar"
`)
	path := writeFile(t, dir, "docker-compose.yml", `
version: "2"
services:
  app:
    extends:
      file: base.yml
      service: common
    environment:
      - "FOO=baz"
      - "EXTRA=1"
`)

	doc, _, err := Linearize(path)
	require.NoError(t, err)

	services := doc["services"].(map[string]interface{})
	app := services["app"].(map[string]interface{})
	assert.NotContains(t, app, "extends")
	assert.NotContains(t, app, "links", "links is not inherited across a file boundary")
	assert.Equal(t, "base-image", app["image"])
	assert.ElementsMatch(t, []interface{}{"FOO=baz", "EXTRA=1"}, app["environment"])
}

func TestLinearizeDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docker-compose.yml", `
services:
  a:
    extends:
      service: b
  b:
    extends:
      service: a
`)

	_, _, err := Linearize(path)
	assert.Error(t, err)
}

func TestLinearizeUnknownServiceExtends(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docker-compose.yml", `
services:
  a:
    extends:
      service: missing
`)

	_, _, err := Linearize(path)
	assert.Error(t, err)
}

func TestLinearizeV1FormatNoTopLevelServicesKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docker-compose.yml", `
web:
  image: nginx
  ports:
    - "80:80"
`)

	doc, _, err := Linearize(path)
	require.NoError(t, err)
	services := doc["services"].(map[string]interface{})
	web := services["web"].(map[string]interface{})
	assert.Equal(t, "nginx", web["image"])
}
