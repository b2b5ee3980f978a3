package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCheckValidConfig(t *testing.T) {
	path := writeTemp(t, "burrow.hcl", `
log {
  level = "debug"
}

netlink {
  timeout_ms = 250
}
`)
	assert.NoError(t, RunCheck(path, ""))
}

func TestRunCheckInvalidConfig(t *testing.T) {
	path := writeTemp(t, "burrow.hcl", `log {`)
	assert.Error(t, RunCheck(path, ""))
}

func TestRunCheckManifest(t *testing.T) {
	path := writeTemp(t, "lab.yaml", `
namespaces:
  - name: blue
    interfaces:
      - name: dummy0
        kind: dummy
        up: true
        addresses:
          - cidr: 192.168.10.1/24
            scope: link
            broadcast: true
    rules:
      - family: 4
        priority: 100
        table: 4000
        src: 10.0.0.0
        src_len: 8
`)
	assert.NoError(t, RunCheck("", path))
}

func TestRunCheckManifestRejectsUnknownKeys(t *testing.T) {
	path := writeTemp(t, "lab.yaml", `
namespaces:
  - name: blue
    intrefaces: []
`)
	assert.Error(t, RunCheck("", path))
}

func TestRunCheckNoArguments(t *testing.T) {
	assert.Error(t, RunCheck("", ""))
}
