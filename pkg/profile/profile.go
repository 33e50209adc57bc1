// Package profile defines the read-only genealogy record consumed by the
// layout engine and the helpers that load and sanitize profile streams.
//
// Profiles are owned by an external record store. This package never mutates
// them; it only validates, filters deleted records, and indexes parent links.
package profile

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/lineage/pkg/errors"
)

// Profile is one person in the genealogy. Parent references are profile IDs;
// empty means unknown.
type Profile struct {
	ID           string `json:"id" yaml:"id" bson:"_id" validate:"required,max=128"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty" validate:"max=256"`
	FatherID     string `json:"father_id,omitempty" yaml:"father_id,omitempty" bson:"father_id,omitempty" validate:"max=128"`
	MotherID     string `json:"mother_id,omitempty" yaml:"mother_id,omitempty" bson:"mother_id,omitempty" validate:"max=128"`
	Generation   int    `json:"generation" yaml:"generation" bson:"generation" validate:"min=1,max=1000"`
	SiblingOrder *int   `json:"sibling_order,omitempty" yaml:"sibling_order,omitempty" bson:"sibling_order,omitempty"`
	Deceased     bool   `json:"deceased,omitempty" yaml:"deceased,omitempty" bson:"deceased,omitempty"`
	PhotoRef     string `json:"photo_ref,omitempty" yaml:"photo_ref,omitempty" bson:"photo_ref,omitempty"`
	Deleted      bool   `json:"deleted,omitempty" yaml:"deleted,omitempty" bson:"deleted,omitempty"`
}

// Label returns the display name, falling back to the ID.
func (p Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Order returns a pointer to v, for building SiblingOrder values.
func Order(v int) *int { return &v }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// Validate checks a single profile's struct constraints.
func Validate(p Profile) error {
	if err := validatorInstance().Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedInput, err, "profile %q invalid", p.ID)
	}
	return nil
}

// Sanitize returns the reachable, non-deleted, valid profiles in input order.
// Invalid records and duplicate IDs are dropped; self-references are cleared.
// Every anomaly is reported as a MALFORMED_INPUT warning.
func Sanitize(in []Profile) ([]Profile, errors.Warnings) {
	var w errors.Warnings
	out := make([]Profile, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		if p.Deleted {
			continue
		}
		if err := Validate(p); err != nil {
			w.Add(err)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			w.Add(errors.New(errors.ErrCodeMalformedInput, "duplicate profile id %q, keeping first", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		if p.FatherID == p.ID {
			w.Add(errors.New(errors.ErrCodeMalformedInput, "profile %q is its own father", p.ID))
			p.FatherID = ""
		}
		if p.MotherID == p.ID {
			w.Add(errors.New(errors.ErrCodeMalformedInput, "profile %q is its own mother", p.ID))
			p.MotherID = ""
		}
		if p.MotherID != "" && p.MotherID == p.FatherID {
			w.Add(errors.New(errors.ErrCodeMalformedInput, "profile %q names %q as both parents, keeping father", p.ID, p.FatherID))
			p.MotherID = ""
		}
		out = append(out, p)
	}
	return out, w
}
