package intent

import (
	"reflect"
	"testing"
)

func TestClassifyFileTools(t *testing.T) {
	cases := []struct {
		name string
		inv  Invocation
		want Intent
	}{
		{"write impl", Invocation{Tool: "write", Path: "pkg/foo/bar.go"}, WriteImpl},
		{"write test", Invocation{Tool: "write", Path: "pkg/foo/bar_test.go"}, WriteTest},
		{"write test dir", Invocation{Tool: "write", Path: "tests/integration/smoke.go"}, WriteTest},
		{"write docs", Invocation{Tool: "write", Path: "docs/guide.md"}, WriteDocs},
		{"write config yaml", Invocation{Tool: "write", Path: "config/app.yaml"}, WriteConfig},
		{"write config go.mod", Invocation{Tool: "write", Path: "go.mod"}, WriteConfig},
		{"edit impl", Invocation{Tool: "edit", Path: "main.go"}, EditImpl},
		{"edit docs", Invocation{Tool: "edit", Path: "README.md"}, EditDocs},
		{"edit config package.json", Invocation{Tool: "str_replace", Path: "package.json"}, EditConfig},
		{"read", Invocation{Tool: "read", Path: "main.go"}, Read},
		{"write no path", Invocation{Tool: "write"}, WriteImpl},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.inv)
			if len(got) != 1 || got[0] != c.want {
				t.Fatalf("Classify(%+v) = %v, want [%s]", c.inv, got, c.want)
			}
		})
	}
}

func TestClassifyUnknownToolYieldsRun(t *testing.T) {
	got := Classify(Invocation{Tool: "frobnicate"})
	want := []Intent{Run}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Classify(unknown) = %v, want %v", got, want)
	}
}

func TestClassifyShellSingleVerb(t *testing.T) {
	cases := []struct {
		command string
		want    Intent
	}{
		{"git commit -m wip", Commit},
		{"git push origin main", Push},
		{"rm -rf build/", Delete},
		{"kubectl apply -f deploy.yaml", Deploy},
		{"ls -la", Run},
	}
	for _, c := range cases {
		got := Classify(Invocation{Tool: "bash", Command: c.command})
		if len(got) != 1 || got[0] != c.want {
			t.Fatalf("Classify(shell %q) = %v, want [%s]", c.command, got, c.want)
		}
	}
}

func TestClassifyShellMultipleSegments(t *testing.T) {
	got := Classify(Invocation{Tool: "bash", Command: "git add -A && git commit -m wip && git push"})
	want := []Intent{Run, Commit, Push}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Classify(multi-segment) = %v, want %v", got, want)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []Invocation{
		{},
		{Tool: ""},
		{Tool: "bash", Command: ""},
		{Tool: "weird_tool_name", Path: "x"},
	}
	for _, inv := range inputs {
		got := Classify(inv)
		if len(got) == 0 {
			t.Fatalf("Classify(%+v) returned no intents", inv)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inv := Invocation{Tool: "write", Path: "internal/pkg/handler_test.go"}
	first := Classify(inv)
	for i := 0; i < 20; i++ {
		if got := Classify(inv); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classify not deterministic: %v vs %v", got, first)
		}
	}
}
