package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
)

// =============================================================================
// Document - Serialized Layout
// =============================================================================

// DocumentVersion is bumped whenever positions for the same input change.
const DocumentVersion = 2

// Document is the flat serialization of a [Result], used by the layout
// cache and the CLI. Nodes keep pre-order so [Import] restores sibling and
// spouse order.
type Document struct {
	Version     int                `json:"version" bson:"version"`
	Orientation config.Orientation `json:"orientation" bson:"orientation"`
	Nodes       []NodeRecord       `json:"nodes" bson:"nodes"`
	Secondary   []Edge             `json:"secondary,omitempty" bson:"secondary,omitempty"`
	Degraded    bool               `json:"degraded,omitempty" bson:"degraded,omitempty"`
	Warnings    []WarningRecord    `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// WarningRecord is one stored layout warning. Code is empty for warnings
// that carried no error code.
type WarningRecord struct {
	Code    errors.Code `json:"code,omitempty" bson:"code,omitempty"`
	Message string      `json:"message" bson:"message"`
}

// NodeRecord is one positioned node in a [Document].
type NodeRecord struct {
	ID         string  `json:"id" bson:"id"`
	Label      string  `json:"label" bson:"label"`
	FatherID   string  `json:"father_id,omitempty" bson:"father_id,omitempty"`
	MotherID   string  `json:"mother_id,omitempty" bson:"mother_id,omitempty"`
	ParentID   string  `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	PartnerID  string  `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	Generation int     `json:"generation" bson:"generation"`
	Depth      int     `json:"depth" bson:"depth"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Width      float64 `json:"width" bson:"width"`
	Height     float64 `json:"height" bson:"height"`
	Deceased   bool    `json:"deceased,omitempty" bson:"deceased,omitempty"`
	PhotoRef   string  `json:"photo_ref,omitempty" bson:"photo_ref,omitempty"`
}

// Export flattens r into a Document.
func (r *Result) Export() Document {
	doc := Document{
		Version:     DocumentVersion,
		Orientation: r.Orientation,
		Nodes:       make([]NodeRecord, len(r.Nodes)),
		Secondary:   r.Secondary,
		Degraded:    r.Degraded,
	}
	for i, n := range r.Nodes {
		doc.Nodes[i] = NodeRecord{
			ID:         n.ID,
			Label:      n.Label,
			FatherID:   n.FatherID,
			MotherID:   n.MotherID,
			ParentID:   n.ParentID,
			PartnerID:  n.PartnerID,
			Generation: n.Generation,
			Depth:      n.Depth,
			X:          n.X,
			Y:          n.Y,
			Width:      n.Width,
			Height:     n.Height,
			Deceased:   n.Deceased,
			PhotoRef:   n.PhotoRef,
		}
	}
	for _, w := range r.Warnings {
		rec := WarningRecord{Code: errors.GetCode(w), Message: w.Error()}
		if rec.Code != "" {
			rec.Message = strings.TrimPrefix(rec.Message, string(rec.Code)+": ")
		}
		doc.Warnings = append(doc.Warnings, rec)
	}
	return doc
}

// Import rebuilds a Result from a Document. Coded warnings come back as
// *errors.Error values with their code.
func Import(doc Document) (*Result, error) {
	if doc.Version != DocumentVersion {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout document version %d, want %d", doc.Version, DocumentVersion)
	}
	r := &Result{
		Orientation: doc.Orientation,
		Nodes:       make([]*Node, len(doc.Nodes)),
		Secondary:   doc.Secondary,
		Degraded:    doc.Degraded,
	}
	byID := make(map[string]*Node, len(doc.Nodes))
	for i, rec := range doc.Nodes {
		if _, dup := byID[rec.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node %q in layout document", rec.ID)
		}
		n := &Node{
			ID:         rec.ID,
			Label:      rec.Label,
			FatherID:   rec.FatherID,
			MotherID:   rec.MotherID,
			ParentID:   rec.ParentID,
			PartnerID:  rec.PartnerID,
			Generation: rec.Generation,
			Depth:      rec.Depth,
			X:          rec.X,
			Y:          rec.Y,
			Width:      rec.Width,
			Height:     rec.Height,
			Deceased:   rec.Deceased,
			PhotoRef:   rec.PhotoRef,
		}
		r.Nodes[i] = n
		byID[n.ID] = n
	}
	for _, n := range r.Nodes {
		switch {
		case n.ParentID != "":
			p, ok := byID[n.ParentID]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "node %q references missing parent %q", n.ID, n.ParentID)
			}
			p.Children = append(p.Children, n)
			r.Edges = append(r.Edges, Edge{Parent: p.ID, Child: n.ID})
		case n.PartnerID != "":
			p, ok := byID[n.PartnerID]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "node %q references missing partner %q", n.ID, n.PartnerID)
			}
			p.Spouses = append(p.Spouses, n)
		default:
			n.Root = true
			r.Roots = append(r.Roots, n)
		}
	}
	for _, w := range doc.Warnings {
		if w.Code == "" {
			r.Warnings = append(r.Warnings, fmt.Errorf("%s", w.Message))
			continue
		}
		r.Warnings = append(r.Warnings, &errors.Error{Code: w.Code, Message: w.Message})
	}
	r.index()
	return r, nil
}

// =============================================================================
// Document Serialization API
// =============================================================================

// Marshal serializes a Result to JSON.
func Marshal(r *Result) ([]byte, error) {
	return json.Marshal(r.Export())
}

// Unmarshal deserializes JSON produced by [Marshal].
func Unmarshal(data []byte) (*Result, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return Import(doc)
}

// WriteFile writes r as pretty-printed JSON.
func WriteFile(r *Result, path string) error {
	data, err := json.MarshalIndent(r.Export(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a layout written by [WriteFile].
func ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
