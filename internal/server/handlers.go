package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/highlight"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
	"github.com/matzehuels/lineage/pkg/render/snapshot"
	"github.com/matzehuels/lineage/pkg/scene"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "views": s.Views()})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.layout().Export())
}

func (s *Server) handleLayoutDOT(w http.ResponseWriter, r *http.Request) {
	opts := nodelink.Options{Secondary: r.URL.Query().Get("secondary") == "true"}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = io.WriteString(w, nodelink.ToDOT(s.layout(), opts))
}

type profilesResponse struct {
	Nodes    int      `json:"nodes"`
	Degraded bool     `json:"degraded,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handlePutProfiles(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read profiles"))
		return
	}
	profiles, err := profile.DecodeJSON(data)
	if err != nil {
		writeErr(w, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode profiles"))
		return
	}
	res, err := s.compute(r.Context(), profiles)
	if err != nil {
		writeErr(w, err)
		return
	}

	s.mu.Lock()
	s.profiles, s.res = profiles, res
	views := make([]*view, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.Unlock()

	for _, v := range views {
		s.rebuild(v, profiles)
	}

	resp := profilesResponse{Nodes: res.Len(), Degraded: res.Degraded}
	for _, warn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, errors.UserMessage(warn))
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// rebuild starts a background layout for v. The scene swaps it in on the
// next frame.
func (s *Server) rebuild(v *view, profiles []profile.Profile) {
	done := v.scene.RebuildAsync(s.ctx, profiles)
	go func() {
		if err := <-done; err != nil && s.ctx.Err() == nil {
			s.logger.Warn("view rebuild failed", "view", v.id, "err", err)
		}
	}()
}

type createViewRequest struct {
	ID     string  `json:"id,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type viewResponse struct {
	ID       string          `json:"id"`
	Restored bool            `json:"restored,omitempty"`
	Snapshot camera.Snapshot `json:"snapshot"`
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req createViewRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "viewport must be positive",
			map[string]any{"width": req.Width, "height": req.Height})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	s.mu.Lock()
	if _, ok := s.views[req.ID]; ok {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, string(errors.ErrCodeInvalidInput), "view already open", map[string]any{"id": req.ID})
		return
	}
	v := &view{
		id:   req.ID,
		base: s.opts.Clock(),
		scene: scene.New(s.res, s.cfg, geom.Size{W: req.Width, H: req.Height}, scene.Options{
			Logger:    s.logger.With("view", req.ID),
			Scheduler: s.opts.Scheduler,
			Layouts:   s.opts.Layouts,
		}),
	}
	s.views[req.ID] = v
	s.mu.Unlock()

	restored := s.restoreCamera(r.Context(), v)
	s.logger.Info("view opened", "view", v.id, "restored", restored)
	writeJSON(w, http.StatusCreated, viewResponse{ID: v.id, Restored: restored, Snapshot: v.scene.Controller().Snapshot()})
}

func (s *Server) restoreCamera(ctx context.Context, v *view) bool {
	if s.opts.Views == nil {
		return false
	}
	data, ok, err := s.opts.Views.Get(ctx, s.opts.Keyer.ViewKey(v.id))
	if err != nil || !ok {
		return false
	}
	var cam camera.Camera
	if err := json.Unmarshal(data, &cam); err != nil || cam.Scale <= 0 {
		return false
	}
	return v.scene.Controller().PanZoomTo(cam, 0) == nil
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	v, ok := s.views[id]
	delete(s.views, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, string(errors.ErrCodeNotFound), "view not found", map[string]any{"id": id})
		return
	}

	v.mu.Lock()
	cam := v.scene.Controller().Camera()
	v.scene.Close()
	v.mu.Unlock()

	if s.opts.Views != nil {
		data, _ := json.Marshal(cam)
		if err := s.opts.Views.Set(r.Context(), s.opts.Keyer.ViewKey(id), data, viewTTL); err != nil {
			s.logger.Warn("persist view camera", "view", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// withView resolves {id} and runs h with the view locked.
func (s *Server) withView(h func(http.ResponseWriter, *http.Request, *view)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.RLock()
		v, ok := s.views[id]
		s.mu.RUnlock()
		if !ok {
			writeError(w, http.StatusNotFound, string(errors.ErrCodeNotFound), "view not found", map[string]any{"id": id})
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		h(w, r, v)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request, v *view) {
	writeJSON(w, http.StatusOK, v.scene.Frame())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request, v *view) {
	vs := v.scene.Frame()
	size := v.scene.Controller().Env().Viewport
	w.Header().Set("Content-Type", "image/png")
	if err := snapshot.Encode(w, vs, snapshot.Options{Width: int(size.W), Height: int(size.H)}); err != nil {
		s.logger.Error("snapshot failed", "view", v.id, "err", err)
	}
}

type eventsRequest struct {
	Events []camera.Record `json:"events"`
}

type rejectedEvent struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

type eventsResponse struct {
	Applied  int             `json:"applied"`
	Rejected []rejectedEvent `json:"rejected,omitempty"`
	Snapshot camera.Snapshot `json:"snapshot"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, v *view) {
	var req eventsRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	events := make([]camera.Event, len(req.Events))
	for i, rec := range req.Events {
		ev, err := rec.Event(v.base)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(errors.GetCode(err)), errors.UserMessage(err), map[string]any{"index": i})
			return
		}
		events[i] = ev
	}

	var resp eventsResponse
	for i, ev := range events {
		if err := v.scene.Handle(ev); err != nil {
			resp.Rejected = append(resp.Rejected, rejectedEvent{Index: i, Type: ev.Name(), Error: errors.UserMessage(err)})
			continue
		}
		resp.Applied++
	}
	resp.Snapshot = v.scene.Controller().Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request, v *view) {
	var size geom.Size
	if err := decode(w, r, &size); err != nil {
		writeErr(w, err)
		return
	}
	if size.W <= 0 || size.H <= 0 {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "viewport must be positive", nil)
		return
	}
	v.scene.SetViewport(size)
	writeJSON(w, http.StatusOK, v.scene.Controller().Snapshot())
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request, v *view) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "x and y must be numbers", nil)
		return
	}
	n, ok := v.scene.HitTest(geom.Pt(x, y))
	if !ok {
		writeError(w, http.StatusNotFound, string(errors.ErrCodeNotFound), "no node at point", map[string]any{"x": x, "y": y})
		return
	}
	writeJSON(w, http.StatusOK, scene.NodeView{
		ID:       n.ID,
		Label:    n.Label,
		Screen:   v.scene.Controller().Camera().Transform().RectToScreen(n.Rect()),
		Deceased: n.Deceased,
		PhotoRef: n.PhotoRef,
		Spouse:   n.IsSpouse(),
	})
}

type focusRequest struct {
	NodeID string `json:"node_id"`
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request, v *view) {
	var req focusRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := v.scene.FocusOnNode(req.NodeID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v.scene.Controller().Snapshot())
}

func (s *Server) handleFit(w http.ResponseWriter, _ *http.Request, v *view) {
	if err := v.scene.Controller().FitToView(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v.scene.Controller().Snapshot())
}

// highlightRequest adds either one entry or the ancestry of a node.
type highlightRequest struct {
	Ancestry string           `json:"ancestry,omitempty"`
	Style    highlight.Style  `json:"style"`
	Entry    *highlight.Entry `json:"entry,omitempty"`
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request, v *view) {
	var req highlightRequest
	if err := decode(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	switch {
	case req.Ancestry != "":
		group, err := v.scene.HighlightAncestry(req.Ancestry, req.Style)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"group": group})
	case req.Entry != nil:
		id, err := v.scene.Highlights().Add(*req.Entry)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	default:
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "need ancestry or entry", nil)
	}
}

func (s *Server) handleRemoveHighlight(w http.ResponseWriter, r *http.Request, v *view) {
	hid := chi.URLParam(r, "hid")
	if r.URL.Query().Get("group") == "true" {
		v.scene.Highlights().RemoveGroup(hid)
	} else {
		v.scene.Highlights().Remove(hid)
	}
	w.WriteHeader(http.StatusNoContent)
}
