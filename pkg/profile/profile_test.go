package profile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/lineage/pkg/errors"
)

func TestSanitize(t *testing.T) {
	in := []Profile{
		{ID: "a", Generation: 1},
		{ID: "b", FatherID: "a", Generation: 2},
		{ID: "a", Generation: 1},                  // duplicate
		{ID: "", Generation: 1},                   // missing id
		{ID: "c", Generation: 0},                  // bad generation
		{ID: "d", FatherID: "d", Generation: 2},   // self reference
		{ID: "e", Generation: 2, Deleted: true},   // deleted
	}
	out, w := Sanitize(in)

	var ids []string
	for _, p := range out {
		ids = append(ids, p.ID)
	}
	if want := []string{"a", "b", "d"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if out[2].FatherID != "" {
		t.Error("self reference should be cleared")
	}
	if got := w.Count(errors.ErrCodeMalformedInput); got != 4 {
		t.Errorf("warnings = %d, want 4: %v", got, w)
	}
}

func TestSanitizeSameParentTwice(t *testing.T) {
	out, w := Sanitize([]Profile{
		{ID: "p", Generation: 1},
		{ID: "c", FatherID: "p", MotherID: "p", Generation: 2},
	})
	if out[1].FatherID != "p" || out[1].MotherID != "" {
		t.Errorf("parents = %q/%q, want father kept and mother cleared", out[1].FatherID, out[1].MotherID)
	}
	if got := w.Count(errors.ErrCodeMalformedInput); got != 1 {
		t.Errorf("warnings = %d, want 1: %v", got, w)
	}
}

func TestIndex(t *testing.T) {
	idx := NewIndex([]Profile{
		{ID: "f", Generation: 1},
		{ID: "m", Generation: 1},
		{ID: "c1", FatherID: "f", MotherID: "m", Generation: 2},
		{ID: "c2", FatherID: "ghost", Generation: 2},
	})

	if f, ok := idx.Father("c1"); !ok || f != "f" {
		t.Errorf("Father(c1) = %q, %v", f, ok)
	}
	if m, ok := idx.Mother("c1"); !ok || m != "m" {
		t.Errorf("Mother(c1) = %q, %v", m, ok)
	}
	if _, ok := idx.Father("c2"); ok {
		t.Error("unresolvable father should not be returned")
	}
	if got := idx.Children("m"); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("Children(m) = %v", got)
	}
}

func TestReadFileFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"tree.json":  `{"profiles":[{"id":"a","generation":1},{"id":"b","father_id":"a","generation":2,"sibling_order":1}]}`,
		"bare.json":  `[{"id":"a","generation":1},{"id":"b","father_id":"a","generation":2,"sibling_order":1}]`,
		"tree.yaml":  "profiles:\n  - id: a\n    generation: 1\n  - id: b\n    father_id: a\n    generation: 2\n    sibling_order: 1\n",
		"bare.yml":   "- id: a\n  generation: 1\n- id: b\n  father_id: a\n  generation: 2\n  sibling_order: 1\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			ps, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if len(ps) != 2 || ps[1].FatherID != "a" || ps[1].SiblingOrder == nil || *ps[1].SiblingOrder != 1 {
				t.Errorf("unexpected profiles %+v", ps)
			}
		})
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	in := Generate(GenerateOptions{Count: 50, Seed: 7})
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(path, in); err != nil {
				t.Fatal(err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, in) {
				t.Error("round trip changed profiles")
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(GenerateOptions{Count: 500, Seed: 42})
	b := Generate(GenerateOptions{Count: 500, Seed: 42})
	if len(a) != 500 {
		t.Fatalf("len = %d, want 500", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce the same tree")
	}
	out, w := Sanitize(a)
	if len(out) != len(a) || len(w) != 0 {
		t.Errorf("generated profiles should be valid, warnings: %v", w)
	}
}
