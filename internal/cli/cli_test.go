package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/profile"
)

// syncWriter serializes writes from the spinner goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func family() []profile.Profile {
	return []profile.Profile{
		{ID: "gf", Name: "Grandfather", Generation: 1},
		{ID: "f", Name: "Father", FatherID: "gf", Generation: 2},
		{ID: "m", Name: "Mother", Generation: 2, Deceased: true},
		{ID: "kid", Name: "Kid", FatherID: "f", MotherID: "m", Generation: 3},
		{ID: "sib", Name: "Sibling", FatherID: "f", MotherID: "m", Generation: 3},
	}
}

type env struct {
	dir      string
	cacheDir string
	profiles string
	out      *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "family.json")
	require.NoError(t, profile.WriteFile(path, family()))

	prev := stderr
	stderr = io.Discard
	t.Cleanup(func() { stderr = prev })

	return &env{
		dir:      dir,
		cacheDir: filepath.Join(dir, "cache"),
		profiles: path,
		out:      captureStdout(t),
	}
}

func (e *env) path(name string) string { return filepath.Join(e.dir, name) }

// run executes one command line against a fresh CLI.
func (e *env) run(t *testing.T, args ...string) error {
	t.Helper()
	e.out.Reset()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--cache", cacheFile, "--cache-dir", e.cacheDir}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestLayoutCommand(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.run(t, "layout", e.profiles))
	assert.Contains(t, e.out.String(), "Layout complete")
	assert.Contains(t, e.out.String(), "5 people")
	assert.Contains(t, e.out.String(), iconFresh)

	res, err := layout.ReadFile(e.path("family" + layoutSuffix))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Len())

	require.NoError(t, e.run(t, "layout", e.profiles, "-o", e.path("again.json")))
	assert.Contains(t, e.out.String(), iconCached)
}

func TestLayoutMissingSource(t *testing.T) {
	e := newEnv(t)
	err := e.run(t, "layout", e.path("nope.json"))
	require.Error(t, err)
}

type queryOut struct {
	Phase string `json:"phase"`
	Nodes []struct {
		ID     string    `json:"id"`
		Screen geom.Rect `json:"screen"`
	} `json:"nodes"`
	Highlights []json.RawMessage `json:"highlights"`
}

func (e *env) query(t *testing.T, args ...string) queryOut {
	t.Helper()
	require.NoError(t, e.run(t, append([]string{"query", "--json"}, args...)...))
	var out queryOut
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &out))
	return out
}

func TestQueryAndHit(t *testing.T) {
	e := newEnv(t)

	out := e.query(t, e.profiles, "--ancestry", "kid")
	assert.Equal(t, "idle", out.Phase)
	assert.Len(t, out.Nodes, 5)
	assert.NotEmpty(t, out.Highlights)

	var kid geom.Rect
	for _, n := range out.Nodes {
		if n.ID == "kid" {
			kid = n.Screen
		}
	}
	require.False(t, kid.Empty())

	c := kid.Center()
	require.NoError(t, e.run(t, "hit", e.profiles, ftoa(c.X), ftoa(c.Y), "--json"))
	var hit hitResult
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &hit))
	assert.Equal(t, "kid", hit.ID)
	assert.Equal(t, "Kid", hit.Label)

	err := e.run(t, "hit", e.profiles, "5000", "5000")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	err = e.run(t, "hit", e.profiles, "x", "1")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestQueryTable(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, "query", e.profiles))
	out := e.out.String()
	for _, want := range []string{"Tier", "People", "Grandfather", "deceased"} {
		assert.Contains(t, out, want)
	}
}

func TestQueryFromLayoutFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, "layout", e.profiles))

	out := e.query(t, e.path("family"+layoutSuffix), "--scale", "1", "--center-x", "0", "--center-y", "0")
	assert.NotEmpty(t, out.Nodes)

	err := e.run(t, "query", e.profiles, "--width", "0")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestSimulate(t *testing.T) {
	e := newEnv(t)
	script := e.path("drag.jsonl")
	require.NoError(t, os.WriteFile(script, []byte(strings.Join([]string{
		"# a move before any drag is ignored",
		`{"type":"pan_move","t":0,"x":10,"y":10}`,
		`{"type":"pan_start","t":0,"x":400,"y":300}`,
		`{"type":"pan_move","t":16,"x":300,"y":300}`,
		`{"type":"pan_move","t":32,"x":200,"y":300}`,
		`{"type":"pan_end","t":40}`,
		`{"type":"tap","t":5000,"x":1,"y":1}`,
	}, "\n")), 0o644))

	shot := e.path("after.png")
	require.NoError(t, e.run(t, "simulate", e.profiles, script, "--json", "--snapshot", shot))

	var rep replayReport
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &rep))
	assert.Equal(t, 5, rep.Applied)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 0, rep.Rejected[0].Index)
	assert.Equal(t, "pan_move", rep.Rejected[0].Type)
	assert.True(t, rep.Settled)
	assert.Equal(t, "idle", rep.Final.Phase)
	assert.FileExists(t, shot)
}

func TestSimulateBadScript(t *testing.T) {
	e := newEnv(t)
	script := e.path("bad.jsonl")
	require.NoError(t, os.WriteFile(script, []byte(`{"type":"wiggle","t":0}`), 0o644))

	err := e.run(t, "simulate", e.profiles, script)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput), "got %v", err)
}

func TestDOT(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.run(t, "dot", e.profiles, "--ancestry", "kid"))
	assert.Contains(t, e.out.String(), "digraph G {")
	assert.Contains(t, e.out.String(), `"gf" -> "f" [color=red, penwidth=3];`)
	assert.Contains(t, e.out.String(), `"f" -> "kid" [color=red, penwidth=3];`)
	assert.NotContains(t, e.out.String(), `"f" -> "sib" [color=red`)
	e.out.Reset()

	out := e.path("tree.dot")
	require.NoError(t, e.run(t, "dot", e.profiles, "-o", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kid"`)

	err = e.run(t, "dot", e.profiles, "-o", e.path("tree.bmp"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	err = e.run(t, "dot", e.profiles, "--ancestry", "nobody")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
}

func TestAncestryPath(t *testing.T) {
	res, err := layout.Compute(context.Background(), family(), config.MustDefault(), layout.Options{})
	require.NoError(t, err)

	ids, edges, err := ancestryPath(res, "kid")
	require.NoError(t, err)
	assert.Equal(t, []string{"kid", "f", "gf"}, ids)
	assert.Equal(t, []layout.Edge{{Parent: "f", Child: "kid"}, {Parent: "gf", Child: "f"}}, edges)

	_, _, err = ancestryPath(res, "nobody")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)
}

func TestSnapshot(t *testing.T) {
	e := newEnv(t)
	out := e.path("frame.png")
	require.NoError(t, e.run(t, "snapshot", e.profiles, "-o", out, "--width", "320", "--height", "240"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestGenerate(t *testing.T) {
	e := newEnv(t)
	out := e.path("gen.yaml")
	require.NoError(t, e.run(t, "generate", "-n", "120", "--seed", "7", "-o", out))

	ps, err := profile.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, ps)
	assert.LessOrEqual(t, len(ps), 120)

	err = e.run(t, "generate", "-n", "0")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestConfigCommand(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, "config"))
	assert.Contains(t, e.out.String(), "[zoom]")

	cfgPath := e.path("lineage.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[zoom]\nmax = 99\n"), 0o644))
	require.NoError(t, e.run(t, "config", "--config", cfgPath))
	assert.NotContains(t, e.out.String(), "max = 99.0")
}

func TestCacheCommands(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.run(t, "cache", "path"))
	assert.Equal(t, e.cacheDir, strings.TrimSpace(e.out.String()))

	require.NoError(t, e.run(t, "layout", e.profiles))
	entries, err := os.ReadDir(e.cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	require.NoError(t, e.run(t, "cache", "clear"))
	assert.Contains(t, e.out.String(), "Cache cleared")
	entries, err = os.ReadDir(e.cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = e.run(t, "cache", "clear", "--cache", "bogus")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestServeRejectsLayoutFile(t *testing.T) {
	e := newEnv(t)
	err := e.run(t, "serve", e.path("family"+layoutSuffix))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		src, suffix, want string
	}{
		{"data/family.json", layoutSuffix, "data/family" + layoutSuffix},
		{"family.yaml", ".png", "family.png"},
		{"family" + layoutSuffix, ".png", "family.png"},
		{"mongodb://localhost/x", layoutSuffix, "profiles" + layoutSuffix},
	}
	for _, tt := range tests {
		if got := defaultOutput(tt.src, tt.suffix); got != tt.want {
			t.Errorf("defaultOutput(%q, %q) = %q, want %q", tt.src, tt.suffix, got, tt.want)
		}
	}
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
