package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"exporthub/internal/checksum"
	"exporthub/pkg/types"
)

func runCLI(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := buildRootCmdWith(&cli{
		stdout: &out,
		stderr: &errOut,
		lookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	})
	root.SetArgs(append([]string{"--log-level", "off"}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestMainWithArgs_ExitCodes(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, mainWithArgs([]string{"--help"}, &out, &errOut))
	require.Contains(t, out.String(), "publish")
	require.Equal(t, 1, mainWithArgs([]string{"wat"}, &out, &errOut))
}

func TestPublishScanVerify(t *testing.T) {
	dir := t.TempDir()
	configs := filepath.Join(dir, "configs")
	store := filepath.Join(dir, "store")
	artifact := filepath.Join(dir, "model.pt2")
	require.NoError(t, os.WriteFile(artifact, []byte("weights"), 0o644))
	sum := sha256.Sum256([]byte("weights"))
	want := hex.EncodeToString(sum[:])
	env := map[string]string{"EXPORTHUB_STORAGE_LOCAL_PATH": store}

	out, err := runCLI(t, env, "--configs-dir", configs, "publish",
		"--model-name", "Acme/widget", "--artifact", artifact,
		"--input-size", "1,3", "--input-size", "1,128", "--storage", "local")
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+filepath.Join(configs, "Acme", "widget.json"))
	require.Contains(t, out, "url=file://")

	raw, err := os.ReadFile(filepath.Join(configs, "Acme", "widget.json"))
	require.NoError(t, err)
	var card map[string]any
	require.NoError(t, json.Unmarshal(raw, &card))
	require.Equal(t, "Acme/widget", card[types.KeyModelName])
	require.Equal(t, "Acme_widget.pt2", card[types.KeyModelFileName])
	require.Equal(t, want, card[types.KeySHA256])
	require.Equal(t, []any{[]any{1.0, 3.0}, []any{1.0, 128.0}}, card[types.KeyInputSizes])
	require.NotContains(t, card, types.KeyOrganization)
	require.FileExists(t, filepath.Join(store, "Acme", "Acme_widget.pt2"))

	out, err = runCLI(t, nil, "--configs-dir", configs, "scan")
	require.NoError(t, err)
	require.Contains(t, out, "1 cards")
	require.Contains(t, out, "widget")

	out, err = runCLI(t, nil, "--configs-dir", configs, "verify", "Acme", "widget", "--artifact", artifact)
	require.NoError(t, err)
	require.Contains(t, out, "OK "+artifact)

	// Without --artifact the card's file is looked up under the artifacts dir.
	out, err = runCLI(t, map[string]string{"EXPORTHUB_ARTIFACTS_DIR": store}, "--configs-dir", configs, "verify", "Acme", "widget")
	require.NoError(t, err)
	require.Contains(t, out, "Acme_widget.pt2")

	require.NoError(t, os.WriteFile(artifact, []byte("tampered"), 0o644))
	_, err = runCLI(t, nil, "--configs-dir", configs, "verify", "Acme", "widget", "--artifact", artifact)
	require.True(t, checksum.IsMismatch(err), "expected mismatch, got %v", err)

	_, err = runCLI(t, nil, "--configs-dir", configs, "verify", "Acme", "nope", "--artifact", artifact)
	require.Error(t, err)
}

func TestPublishManifest(t *testing.T) {
	dir := t.TempDir()
	configs := filepath.Join(dir, "configs")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pt2"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pt2"), []byte("b"), 0o644))
	manifest := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`models:
  - model_name: Acme/alpha
    artifact: a.pt2
    input_sizes: [[1, 8]]
  - model_name: Globex/beta
    artifact: b.pt2
    organization: Acme
    model_id: beta-v2
`), 0o644))

	out, err := runCLI(t, nil, "--configs-dir", configs, "publish", "--manifest", manifest)
	require.NoError(t, err)
	require.Contains(t, out, filepath.Join(configs, "Acme", "alpha.json"))
	require.Contains(t, out, filepath.Join(configs, "Globex", "beta.json"))
	require.NotContains(t, out, "url=")

	out, err = runCLI(t, nil, "--configs-dir", configs, "scan", "--json")
	require.NoError(t, err)
	var rep types.ScanReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Equal(t, 2, rep.Cards)
	require.Equal(t, 2, rep.Folders)
	require.Empty(t, rep.Skipped)
}

func TestPublishErrors(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "m.pt2")
	require.NoError(t, os.WriteFile(artifact, []byte("m"), 0o644))

	_, err := runCLI(t, nil, "--configs-dir", dir, "publish")
	require.Error(t, err)
	_, err = runCLI(t, nil, "--configs-dir", dir, "publish", "--model-name", "Acme/m", "--artifact", artifact, "--input-size", "1,x")
	require.ErrorContains(t, err, "invalid --input-size")
	_, err = runCLI(t, nil, "--configs-dir", dir, "publish", "--model-name", "Acme/m", "--artifact", artifact, "--manifest", "m.yaml")
	require.Error(t, err)
	_, err = runCLI(t, nil, "--configs-dir", dir, "publish", "--model-name", "Acme/m", "--artifact", artifact, "--storage", "ftp")
	require.ErrorContains(t, err, "unsupported storage backend")
}

func TestScanStrict(t *testing.T) {
	configs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(configs, "Acme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configs, "Acme", "bad.json"), []byte(`{"x":`), 0o644))

	out, err := runCLI(t, nil, "--configs-dir", configs, "scan")
	require.NoError(t, err)
	require.Contains(t, out, "skipped "+filepath.Join(configs, "Acme", "bad.json"))

	_, err = runCLI(t, nil, "--configs-dir", configs, "scan", "--strict")
	require.ErrorContains(t, err, "1 card files skipped")
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	fromFile, fromEnv, fromFlag := filepath.Join(dir, "file"), filepath.Join(dir, "env"), filepath.Join(dir, "flag")
	cfgPath := filepath.Join(dir, "exporthub.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("configs_dir: "+fromFile+"\n"), 0o644))

	root := func(env map[string]string, args ...string) string {
		out, err := runCLI(t, env, append(args, "scan", "--json")...)
		require.NoError(t, err)
		var rep types.ScanReport
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		return rep.Root
	}
	require.Equal(t, fromFile, root(nil, "--config", cfgPath))
	require.Equal(t, fromEnv, root(map[string]string{"EXPORTHUB_CONFIGS_DIR": fromEnv}, "--config", cfgPath))
	require.Equal(t, fromFlag, root(map[string]string{"EXPORTHUB_CONFIGS_DIR": fromEnv}, "--config", cfgPath, "--configs-dir", fromFlag))

	_, err := runCLI(t, map[string]string{"PORT": "abc"}, "scan")
	require.Error(t, err)
}

func TestParseInputSizes(t *testing.T) {
	got, err := parseInputSizes([]string{"1,3,224,224", " 2 , 4 "})
	require.NoError(t, err)
	require.Equal(t, [][]int64{{1, 3, 224, 224}, {2, 4}}, got)

	got, err = parseInputSizes(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	for _, bad := range []string{"", "1,-2", "a"} {
		_, err := parseInputSizes([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestPublishSkipExisting(t *testing.T) {
	dir := t.TempDir()
	configs := filepath.Join(dir, "configs")
	artifact := filepath.Join(dir, "model.pt2")
	require.NoError(t, os.WriteFile(artifact, []byte("weights"), 0o644))
	args := []string{"--configs-dir", configs, "publish", "--model-name", "Acme/widget", "--artifact", artifact, "--skip-existing"}

	out, err := runCLI(t, nil, args...)
	require.NoError(t, err)
	require.Contains(t, out, "wrote ")
	out, err = runCLI(t, nil, args...)
	require.NoError(t, err)
	require.Contains(t, out, "unchanged "+filepath.Join(configs, "Acme", "widget.json"))
}
