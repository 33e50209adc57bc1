package camera

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
)

// Record is the JSON form of an [Event], used by gesture scripts and the
// HTTP API. T is milliseconds since a caller-chosen base time. X and Y are
// the touch point, or the pinch focal point.
type Record struct {
	Type     string  `json:"type"`
	T        int64   `json:"t"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Distance float64 `json:"distance,omitempty"`

	// Navigate targets.
	TranslateX float64 `json:"tx,omitempty"`
	TranslateY float64 `json:"ty,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	DurationMS int64   `json:"duration_ms,omitempty"`
}

// Event converts r to an event stamped relative to base.
func (r Record) Event(base time.Time) (Event, error) {
	at := base.Add(time.Duration(r.T) * time.Millisecond)
	p := geom.Pt(r.X, r.Y)
	switch r.Type {
	case "pan_start":
		return PanStart{At: p, Time: at}, nil
	case "pan_move":
		return PanMove{At: p, Time: at}, nil
	case "pan_end":
		return PanEnd{Time: at}, nil
	case "pinch_start":
		return PinchStart{Focal: p, Distance: r.Distance, Time: at}, nil
	case "pinch_move":
		return PinchMove{Focal: p, Distance: r.Distance, Time: at}, nil
	case "pinch_end":
		return PinchEnd{Time: at}, nil
	case "tap":
		return Tap{At: p, Time: at}, nil
	case "double_tap":
		return DoubleTap{At: p, Time: at}, nil
	case "tick":
		return Tick{Now: at}, nil
	case "navigate":
		if r.Scale <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "navigate record at t=%d needs a positive scale", r.T)
		}
		return Navigate{
			Target:   Camera{Scale: r.Scale, TranslateX: r.TranslateX, TranslateY: r.TranslateY},
			Duration: time.Duration(r.DurationMS) * time.Millisecond,
			Time:     at,
		}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown event type %q", r.Type)
	}
}

// RecordOf converts ev back to its JSON form.
func RecordOf(ev Event, base time.Time) Record {
	ms := func(t time.Time) int64 { return t.Sub(base).Milliseconds() }
	r := Record{Type: ev.Name()}
	switch e := ev.(type) {
	case PanStart:
		r.T, r.X, r.Y = ms(e.Time), e.At.X, e.At.Y
	case PanMove:
		r.T, r.X, r.Y = ms(e.Time), e.At.X, e.At.Y
	case PanEnd:
		r.T = ms(e.Time)
	case PinchStart:
		r.T, r.X, r.Y, r.Distance = ms(e.Time), e.Focal.X, e.Focal.Y, e.Distance
	case PinchMove:
		r.T, r.X, r.Y, r.Distance = ms(e.Time), e.Focal.X, e.Focal.Y, e.Distance
	case PinchEnd:
		r.T = ms(e.Time)
	case Tap:
		r.T, r.X, r.Y = ms(e.Time), e.At.X, e.At.Y
	case DoubleTap:
		r.T, r.X, r.Y = ms(e.Time), e.At.X, e.At.Y
	case Tick:
		r.T = ms(e.Now)
	case Navigate:
		r.T = ms(e.Time)
		r.TranslateX, r.TranslateY, r.Scale = e.Target.TranslateX, e.Target.TranslateY, e.Target.Scale
		r.DurationMS = e.Duration.Milliseconds()
	}
	return r
}

// ReadScript parses a gesture script: one JSON record per line. Blank lines
// and lines starting with # are skipped. Records must be in time order.
func ReadScript(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "script line %d", line)
		}
		if n := len(out); n > 0 && rec.T < out[n-1].T {
			return nil, errors.New(errors.ErrCodeMalformedInput, "script line %d: t=%d goes back in time", line, rec.T)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "read script")
	}
	return out, nil
}
