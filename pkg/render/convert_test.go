package render

import (
	"os/exec"
	"testing"

	"github.com/matzehuels/lineage/pkg/errors"
)

func TestMissingConverter(t *testing.T) {
	orig := rsvgLookup
	rsvgLookup = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { rsvgLookup = orig })

	for _, fn := range []func() ([]byte, error){
		func() ([]byte, error) { return ToPDF([]byte("<svg/>")) },
		func() ([]byte, error) { return ToPNG([]byte("<svg/>"), 2) },
	} {
		_, err := fn()
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	}
}
