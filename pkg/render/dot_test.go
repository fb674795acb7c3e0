package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/workgraph/pkg/plan"
)

func sampleGraph(t *testing.T) []*plan.Node {
	t.Helper()
	app := &plan.Project{Path: ":app", BuildPath: ":"}
	compile := plan.NewNode(plan.KindLocalTask, ":app:compile", app)
	test := plan.NewNode(plan.KindLocalTask, ":app:test", app)
	cleanup := plan.NewNode(plan.KindLocalTask, ":app:cleanup", app)
	extract := plan.NewNode(plan.KindTransform, "extract", nil)
	other := plan.NewNode(plan.KindTaskInAnotherBuild, ":lib:jar", nil)

	for _, err := range []error{
		compile.AddDependencySuccessor(extract),
		extract.AddDependencySuccessor(other),
		test.AddShouldSuccessor(compile),
		test.AddMustSuccessor(other),
		compile.AddFinalizingSuccessor(cleanup),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	ordinal := plan.NewOrdinalGroup(1)
	compile.SetGroup(ordinal)
	test.SetGroup(ordinal)
	cleanup.SetGroup(plan.NewFinalizerGroup(cleanup, ordinal))
	return []*plan.Node{other, extract, compile, test, cleanup}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`n0 [label=":lib:jar", style="rounded,filled,dashed"`,
		`n1 [label="extract", shape=ellipse`,
		"n1 -> n0;",
		"n2 -> n1;",
		`n3 -> n2 [style=dotted`,
		`n3 -> n0 [style=dashed, label="must run after"]`,
		`n2 -> n4 [color=firebrick`,
		"peripheries=2",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "subgraph") {
		t.Error("clusters drawn without Clusters option")
	}
}

func TestToDOTOmitsEdgesOutsideSubset(t *testing.T) {
	nodes := sampleGraph(t)
	dot := ToDOT(nodes[2:], Options{})
	if strings.Contains(dot, "extract") {
		t.Errorf("node outside subset rendered:\n%s", dot)
	}
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("got %d edges, want 2:\n%s", got, dot)
	}
}

func TestToDOTClusters(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Clusters: true, Detailed: true})

	if strings.Count(dot, "subgraph cluster_") != 1 {
		t.Fatalf("want one cluster:\n%s", dot)
	}
	if !strings.Contains(dot, `label="task group 1";`) {
		t.Errorf("cluster label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `\nproject: :app`) || !strings.Contains(dot, `\nkind: transform`) {
		t.Errorf("detailed labels missing:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("got %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
