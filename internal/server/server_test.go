package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/metrics"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/scene"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func family() []profile.Profile {
	return []profile.Profile{
		{ID: "gf", Name: "Grandfather", Generation: 1},
		{ID: "f", Name: "Father", FatherID: "gf", Generation: 2},
		{ID: "m", Name: "Mother", Generation: 2},
		{ID: "kid", Name: "Kid", FatherID: "f", MotherID: "m", Generation: 3},
		{ID: "sib", Name: "Sibling", FatherID: "f", MotherID: "m", Generation: 3},
	}
}

type harness struct {
	srv   *Server
	http  *httptest.Server
	sched *camera.ManualScheduler
	views cache.Cache
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	views, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	sched := camera.NewManualScheduler(t0)
	srv, err := New(context.Background(), family(), Options{
		Config:    config.MustDefault(),
		Views:     views,
		Metrics:   metrics.NewRegistry(),
		Scheduler: sched,
		Clock:     sched.Now,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &harness{srv: srv, http: ts, sched: sched, views: views}
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.http.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (h *harness) openView(t *testing.T, id string) viewResponse {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/views", createViewRequest{ID: id, Width: 1600, Height: 1200})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[viewResponse](t, resp)
}

func (h *harness) frame(t *testing.T, id string) scene.VisibleSet {
	t.Helper()
	resp := h.do(t, http.MethodGet, "/views/"+id+"/frame", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[scene.VisibleSet](t, resp)
}

func TestHealthAndVersion(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeBody[map[string]any](t, resp), "version")
}

func TestLayoutEndpoints(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/layout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[map[string]any](t, resp)
	assert.Len(t, doc["nodes"], 5)

	resp = h.do(t, http.MethodGet, "/layout.dot?secondary=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "digraph G {"))
	assert.Contains(t, string(body), "style=dashed")
}

func TestViewLifecycle(t *testing.T) {
	h := newHarness(t)
	v := h.openView(t, "")
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, 1, h.srv.Views())

	vs := h.frame(t, v.ID)
	assert.Len(t, vs.Nodes, 5)

	resp := h.do(t, http.MethodDelete, "/views/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, h.srv.Views())

	resp = h.do(t, http.MethodGet, "/views/"+v.ID+"/frame", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = h.do(t, http.MethodDelete, "/views/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateViewValidation(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodPost, "/views", createViewRequest{Width: 0, Height: 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/views", map[string]any{"width": 10, "height": 10, "zoom": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")

	h.openView(t, "dup")
	resp = h.do(t, http.MethodPost, "/views", createViewRequest{ID: "dup", Width: 10, Height: 10})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCameraPersistsAcrossViews(t *testing.T) {
	h := newHarness(t)
	h.openView(t, "saved")
	target := camera.Camera{Scale: 2, TranslateX: -100, TranslateY: -50}
	resp := h.do(t, http.MethodPost, "/views/saved/events", eventsRequest{Events: []camera.Record{
		camera.RecordOf(camera.Navigate{Target: target, Time: t0}, t0),
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	want := decodeBody[eventsResponse](t, resp).Snapshot.Camera

	h.do(t, http.MethodDelete, "/views/saved", nil)
	v := h.openView(t, "saved")
	assert.True(t, v.Restored)
	assert.Equal(t, want, v.Snapshot.Camera)
}

func TestEvents(t *testing.T) {
	h := newHarness(t)
	v := h.openView(t, "pan")
	before := v.Snapshot.Camera

	resp := h.do(t, http.MethodPost, "/views/pan/events", eventsRequest{Events: []camera.Record{
		{Type: "pan_move", T: 0, X: 10, Y: 10},
		{Type: "pan_start", T: 0, X: 100, Y: 100},
		{Type: "pan_move", T: 16, X: 100, Y: 140},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[eventsResponse](t, resp)
	assert.Equal(t, 2, got.Applied)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, 0, got.Rejected[0].Index)
	assert.Equal(t, "pan", got.Snapshot.Phase)
	assert.NotEqual(t, before.TranslateY, got.Snapshot.Camera.TranslateY)

	resp = h.do(t, http.MethodPost, "/views/pan/events", eventsRequest{Events: []camera.Record{{Type: "swipe"}}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHitAndFocus(t *testing.T) {
	h := newHarness(t)
	h.openView(t, "hit")
	vs := h.frame(t, "hit")
	require.NotEmpty(t, vs.Nodes)
	target := vs.Nodes[0]
	c := target.Screen.Center()

	resp := h.do(t, http.MethodGet, "/views/hit/hit?x="+ftoa(c.X)+"&y="+ftoa(c.Y), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, target.ID, decodeBody[scene.NodeView](t, resp).ID)

	resp = h.do(t, http.MethodGet, "/views/hit/hit?x=-5000&y=-5000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = h.do(t, http.MethodGet, "/views/hit/hit?x=abc&y=1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/views/hit/focus", focusRequest{NodeID: "nobody"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/views/hit/focus", focusRequest{NodeID: "kid"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "animating", decodeBody[camera.Snapshot](t, resp).Phase)

	h.sched.Advance(time.Second)
	resp = h.do(t, http.MethodPost, "/views/hit/fit", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHighlights(t *testing.T) {
	h := newHarness(t)
	h.openView(t, "hl")

	resp := h.do(t, http.MethodPost, "/views/hl/highlights", highlightRequest{Ancestry: "kid"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	group := decodeBody[map[string]string](t, resp)["group"]
	require.NotEmpty(t, group)
	assert.Len(t, h.frame(t, "hl").Highlights, 2)

	resp = h.do(t, http.MethodDelete, "/views/hl/highlights/"+group+"?group=true", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, h.frame(t, "hl").Highlights)

	resp = h.do(t, http.MethodPost, "/views/hl/highlights", highlightRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = h.do(t, http.MethodPost, "/views/hl/highlights", highlightRequest{Ancestry: "nobody"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutProfilesRebuildsViews(t *testing.T) {
	h := newHarness(t)
	h.openView(t, "live")
	require.Len(t, h.frame(t, "live").Nodes, 5)

	next := append(family(), profile.Profile{ID: "baby", FatherID: "kid", Generation: 4})
	resp := h.do(t, http.MethodPut, "/profiles", next)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 6, decodeBody[profilesResponse](t, resp).Nodes)

	assert.Eventually(t, func() bool {
		return len(h.frame(t, "live").Nodes) == 6
	}, 5*time.Second, 10*time.Millisecond)

	resp = h.do(t, http.MethodPut, "/profiles", "not a list")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSnapshotAndViewport(t *testing.T) {
	h := newHarness(t)
	h.openView(t, "png")
	resp := h.do(t, http.MethodPut, "/views/png/viewport", map[string]float64{"width": 320, "height": 240})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/views/png/snapshot.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/healthz", nil)
	resp := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `lineage_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
