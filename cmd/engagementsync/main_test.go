package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, statsURL string) string {
	t.Helper()
	body := "stats:\n  baseUrl: " + statsURL + "\nsync:\n  pacing:\n    mode: none\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	out, err := execute(t, "status", "--config", writeConfig(t, "http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.Contains(t, out, "Last sync: Never")
	assert.Contains(t, out, "Due:       yes")
}

func TestRunCommandWithEmptyStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "run", "--config", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Contains(t, out, "Stats sync finished: 0 of 0 items updated")
}

func TestRunCommandServiceDown(t *testing.T) {
	out, err := execute(t, "run", "--config", writeConfig(t, "http://127.0.0.1:1"))
	require.Error(t, err)
	assert.Contains(t, out, "service unavailable")
}

func TestFetchRequiresURL(t *testing.T) {
	_, err := execute(t, "fetch", "--config", writeConfig(t, "http://127.0.0.1:1"))
	assert.Error(t, err)
}
