package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
)

const testPlan = `
[[project]]
path = ":app"

[[group]]
id = "main"
type = "ordinal"
position = 0

[[node]]
path = ":app:compile"
project = ":app"
group = "main"

[[node]]
path = ":app:jar"
project = ":app"
group = "main"
depends_on = [":app:compile"]
`

// setupEnv points the XDG directories at a temp dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return dir
}

func writePlan(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "build.toml")
	if err := os.WriteFile(path, []byte(testPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestEncodeWritesGraphFile(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)

	if err := execute(t, "encode", plan); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := filepath.Join(dir, "build"+graphExt)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("graph file not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "WKGR") {
		t.Errorf("graph file does not start with the frame magic")
	}

	if err := execute(t, "inspect", out); err != nil {
		t.Errorf("inspect file: %v", err)
	}
	if err := execute(t, "inspect", out, "--json"); err != nil {
		t.Errorf("inspect --json: %v", err)
	}
}

func TestEncodeToKey(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)
	out := filepath.Join(dir, "nested", "out.wkg")

	if err := execute(t, "encode", plan, "-o", out, "--key", "app"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file: %v", err)
	}
	if err := execute(t, "inspect", "--key", "app"); err != nil {
		t.Errorf("inspect --key: %v", err)
	}
}

func TestRenderDOT(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)
	out := filepath.Join(dir, "graph.dot")

	if err := execute(t, "render", plan, "-o", out, "--clusters"); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.Contains(dot, "digraph G {") || !strings.Contains(dot, "n1 -> n0;") {
		t.Errorf("dot = %s", dot)
	}
	if !strings.Contains(dot, `label="task group 0"`) {
		t.Errorf("cluster missing: %s", dot)
	}
}

func TestPlanSourceIsCached(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)

	c := New(io.Discard, LogInfo)
	ctx := context.Background()
	runner, err := c.newRunner(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()

	src := graphSource{path: plan}
	first, err := loadGraph(ctx, runner, src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := loadGraph(ctx, runner, src)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if first.BuildID != second.BuildID {
		t.Error("second load should return the stored build")
	}
}

func TestCommandErrors(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)
	corrupt := filepath.Join(dir, "corrupt.wkg")
	if err := os.WriteFile(corrupt, []byte("WKGR garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	badPlan := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(badPlan, []byte("[[node]]\npath = \"\""), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code wgerrors.Code
	}{
		{"NoSource", []string{"inspect"}, wgerrors.ErrCodeInvalidInput},
		{"FileAndKey", []string{"inspect", plan, "--key", "app"}, wgerrors.ErrCodeInvalidInput},
		{"BadKey", []string{"inspect", "--key", "../etc"}, wgerrors.ErrCodeInvalidKey},
		{"MissingKey", []string{"inspect", "--key", "absent"}, wgerrors.ErrCodeNotFound},
		{"MissingFile", []string{"inspect", filepath.Join(dir, "nope.wkg")}, wgerrors.ErrCodeFileNotFound},
		{"CorruptFile", []string{"inspect", corrupt}, wgerrors.ErrCodeCorruptGraph},
		{"BadPlan", []string{"encode", badPlan}, wgerrors.ErrCodeInvalidPlan},
		{"BadFormat", []string{"render", plan, "-f", "png"}, wgerrors.ErrCodeInvalidFormat},
		{"EncodeBadKey", []string{"encode", plan, "--key=-x"}, wgerrors.ErrCodeInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if !wgerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"encode", "inspect", "render", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
	for _, flag := range []string{"config", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}
