package io

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/plan"
)

const samplePlan = `
[[project]]
path = ":app"

[[project]]
path = ":lib"
build = ":included"

[[group]]
id = "first"
type = "ordinal"
position = 0

[[group]]
id = "cleanup"
type = "finalizer"
node = ":app:cleanup"
delegate = "first"

[[group]]
id = "shared"
type = "composite"
ordinal = "first"
finalizers = ["cleanup"]

[[node]]
path = ":lib:jar"
kind = "task-in-another-build"
project = ":lib"
target_build = ":included"

[[node]]
path = ":app:cleanup"
project = ":app"
group = "cleanup"

[[node]]
path = "transform lib.jar"
kind = "action"
action = "ExtractClasses"
depends_on = [":lib:jar"]

[[node]]
path = ":app:compile"
project = ":app"
group = "shared"
depends_on = [":lib:jar", "transform lib.jar"]
must_run_after = [":lib:jar"]
finalized_by = [":app:cleanup"]
lifecycle = ["transform lib.jar"]

[[node]]
path = ":app:test"
project = ":app"
group = "shared"
should_run_after = [":app:compile"]
`

func TestReadPlan(t *testing.T) {
	nodes, err := ReadPlan(strings.NewReader(samplePlan))
	if err != nil {
		t.Fatalf("ReadPlan: %v", err)
	}
	if len(nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(nodes))
	}
	lib, cleanup, transform, compile, test := nodes[0], nodes[1], nodes[2], nodes[3], nodes[4]

	if lib.Kind != plan.KindTaskInAnotherBuild || lib.TargetBuild != ":included" {
		t.Errorf("lib = %v target %q", lib, lib.TargetBuild)
	}
	if lib.Project.BuildPath != ":included" || compile.Project.BuildPath != ":" {
		t.Error("project builds not applied")
	}
	if compile.Project != test.Project {
		t.Error("nodes of one project should share the project instance")
	}
	if transform.Kind != plan.KindAction || transform.Action != "ExtractClasses" {
		t.Errorf("transform = %v action %q", transform, transform.Action)
	}
	if got := compile.DependencySuccessors().Nodes(); len(got) != 2 || got[0] != lib || got[1] != transform {
		t.Error("compile dependencies wrong")
	}
	if !compile.MustSuccessors().Contains(lib) || !compile.FinalizingSuccessors().Contains(cleanup) {
		t.Error("compile ordering edges wrong")
	}
	if !compile.LifecycleSuccessors().Contains(transform) {
		t.Error("compile lifecycle wrong")
	}
	if !test.ShouldSuccessors().Contains(compile) {
		t.Error("test should-run-after wrong")
	}

	if compile.Group() != test.Group() {
		t.Error("compile and test should share the composite group")
	}
	cg, ok := compile.Group().(*plan.CompositeGroup)
	if !ok || len(cg.Finalizers) != 1 || plan.Group(cg.Finalizers[0]) != cleanup.Group() {
		t.Errorf("composite group = %v", compile.Group())
	}
	if transform.Group() != plan.Default {
		t.Error("node without group should get the default group")
	}
}

func TestReadPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"Syntax", `[[node]`},
		{"UnknownField", "[[node]]\npath = \":a\"\ncolour = \"red\""},
		{"EmptyPath", "[[node]]\npath = \"\""},
		{"UnknownKind", "[[node]]\npath = \":a\"\nkind = \"job\""},
		{"DuplicateNode", "[[node]]\npath = \":a\"\n[[node]]\npath = \":a\""},
		{"UnknownProject", "[[node]]\npath = \":a\"\nproject = \":x\""},
		{"UnknownSuccessor", "[[node]]\npath = \":a\"\ndepends_on = [\":b\"]"},
		{"MustToAction", "[[node]]\npath = \"x\"\nkind = \"action\"\n[[node]]\npath = \":a\"\nmust_run_after = [\"x\"]"},
		{"LifecycleOnAction", "[[node]]\npath = \":a\"\n[[node]]\npath = \"x\"\nkind = \"action\"\nlifecycle = [\":a\"]"},
		{"TargetBuildOnTask", "[[node]]\npath = \":a\"\ntarget_build = \":b\""},
		{"UnknownGroup", "[[node]]\npath = \":a\"\ngroup = \"g\""},
		{"UnknownGroupType", "[[group]]\nid = \"g\"\ntype = \"weird\""},
		{"ForwardGroupRef", "[[group]]\nid = \"c\"\ntype = \"composite\"\nordinal = \"o\"\n[[group]]\nid = \"o\"\ntype = \"ordinal\""},
		{"FinalizerNotTask", "[[group]]\nid = \"f\"\ntype = \"finalizer\"\nnode = \"x\"\n[[node]]\npath = \"x\"\nkind = \"action\""},
		{"CompositeOfOrdinal", "[[group]]\nid = \"o\"\ntype = \"ordinal\"\n[[group]]\nid = \"c\"\ntype = \"composite\"\nfinalizers = [\"o\"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPlan(strings.NewReader(tt.toml))
			if !errors.Is(err, errors.ErrCodeInvalidPlan) {
				t.Errorf("err = %v, want INVALID_PLAN", err)
			}
		})
	}
}

func TestImportPlanMissingFile(t *testing.T) {
	_, err := ImportPlan(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWriteJSON(t *testing.T) {
	nodes, err := ReadPlan(strings.NewReader(samplePlan))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteJSON(nodes, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var g Graph
	if err := json.Unmarshal(buf.Bytes(), &g); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(g.Nodes) != 5 {
		t.Fatalf("got %d nodes", len(g.Nodes))
	}
	// lib: default(0); cleanup: finalizer(1) -> ordinal(2); compile: composite(3)
	wantTypes := []string{"default", "finalizer", "ordinal", "composite"}
	if len(g.Groups) != len(wantTypes) {
		t.Fatalf("got %d groups, want %d: %+v", len(g.Groups), len(wantTypes), g.Groups)
	}
	for i, want := range wantTypes {
		if g.Groups[i].Type != want {
			t.Errorf("group %d type = %s, want %s", i, g.Groups[i].Type, want)
		}
	}
	if g.Nodes[3].Group != 3 || g.Nodes[4].Group != 3 {
		t.Error("shared composite should be exported once")
	}
	comp := g.Groups[3]
	if *comp.Ordinal != 2 || len(comp.Finalizers) != 1 || comp.Finalizers[0] != 1 {
		t.Errorf("composite = %+v", comp)
	}
	if fin := g.Groups[1]; *fin.Node != 1 || *fin.Delegate != 2 {
		t.Errorf("finalizer = %+v", fin)
	}
	if got := g.Nodes[3].DependsOn; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("depends_on = %v", got)
	}
	if g.Nodes[0].Project != ":lib" || g.Nodes[0].Build != ":included" {
		t.Errorf("node 0 project = %q build %q", g.Nodes[0].Project, g.Nodes[0].Build)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := ExportJSON([]*plan.Node{plan.NewNode(plan.KindAction, "a", nil)}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"kind": "action"`)) {
		t.Errorf("export = %s", data)
	}
}
