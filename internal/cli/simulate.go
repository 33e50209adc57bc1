package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render/snapshot"
	"github.com/matzehuels/lineage/pkg/scene"
)

const (
	// settleLimit bounds how long a replay waits for momentum and
	// animations to finish after the last scripted event.
	settleLimit = 30 * time.Second

	// frameInterval is the simulated display refresh.
	frameInterval = 16 * time.Millisecond
)

// epoch anchors script timestamps. Replays are deterministic, so any fixed
// instant works.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// simulateCommand replays a gesture script against the camera.
func (c *CLI) simulateCommand() *cobra.Command {
	var (
		view     viewFlags
		trace    bool
		pngOut   string
	)

	cmd := &cobra.Command{
		Use:   "simulate <profiles> <script.jsonl>",
		Short: "Replay a gesture script against the camera",
		Long: `Replay recorded touch gestures through the camera state machine on a
simulated clock and print where the camera comes to rest.

The script holds one JSON event per line, for example:

  {"type":"pan_start","t":0,"x":400,"y":300}
  {"type":"pan_move","t":16,"x":380,"y":300}
  {"type":"pan_end","t":32}
  {"type":"pinch_start","t":500,"x":640,"y":400,"distance":100}
  {"type":"navigate","t":900,"tx":0,"ty":0,"scale":1,"duration_ms":350}

"t" is milliseconds from the start of the script. Lines starting with # are
ignored. Use - to read the script from stdin. Events that are not valid in
the current gesture phase are reported and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd.Context(), args[0], args[1], &view, trace, pngOut)
		},
	}
	view.register(cmd)
	cmd.Flags().BoolVar(&trace, "trace", false, "print the camera after every event")
	cmd.Flags().StringVar(&pngOut, "snapshot", "", "write the final frame as PNG")
	return cmd
}

// replayReport is the outcome of one replay.
type replayReport struct {
	Applied  int             `json:"applied"`
	Rejected []rejectedEvent `json:"rejected,omitempty"`
	Taps     []string        `json:"taps,omitempty"`
	Settled  bool            `json:"settled"`
	Final    camera.Snapshot `json:"final"`
}

type rejectedEvent struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (c *CLI) runSimulate(ctx context.Context, src, script string, view *viewFlags, trace bool, out string) error {
	records, err := readScript(script)
	if err != nil {
		return err
	}

	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	var taps []string
	sched := camera.NewManualScheduler(epoch)
	s := scene.New(ws.res, ws.cfg, view.size(), scene.Options{
		Logger:    c.Logger,
		Scheduler: sched,
		OnTap: func(n *layout.Node) {
			if n != nil {
				taps = append(taps, n.ID)
			}
		},
	})
	defer s.Close()

	var onEvent func(i int, ev camera.Event)
	if trace && !view.jsonOut {
		onEvent = func(i int, ev camera.Event) {
			snap := s.Controller().Snapshot()
			printDetail("%4d %-12s %-9s scale=%.4f t=(%.1f, %.1f)", i, ev.Name(), snap.Phase,
				snap.Camera.Scale, snap.Camera.TranslateX, snap.Camera.TranslateY)
		}
	}

	rep, err := replay(ctx, s, sched, records, onEvent)
	if err != nil {
		return err
	}
	rep.Taps = taps

	if out != "" {
		opts := snapshot.Options{Width: int(view.width), Height: int(view.height)}
		if err := snapshot.WriteFile(out, s.Frame(), opts); err != nil {
			return err
		}
	}

	if view.jsonOut {
		return printJSON(rep)
	}
	printSuccess("Replayed %d events", len(records))
	printKeyValue("Applied", fmt.Sprint(rep.Applied))
	printKeyValue("Phase", rep.Final.Phase)
	printKeyValue("Scale", fmt.Sprintf("%.4f", rep.Final.Camera.Scale))
	printKeyValue("Translate", fmt.Sprintf("%.1f, %.1f", rep.Final.Camera.TranslateX, rep.Final.Camera.TranslateY))
	for _, id := range rep.Taps {
		printDetail("tapped %s", id)
	}
	for _, r := range rep.Rejected {
		printWarning("event %d (%s) rejected: %s", r.Index, r.Type, r.Error)
	}
	if !rep.Settled {
		printWarning("camera still moving after %s", settleLimit)
	}
	if out != "" {
		printFile(out)
	}
	return nil
}

func readScript(path string) ([]camera.Record, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open script")
		}
		defer f.Close()
		r = f
	}
	return camera.ReadScript(r)
}

// replay feeds records to s, advancing the simulated clock to each record's
// time so scheduled momentum and animation ticks interleave as they would
// on a device. It then lets the camera settle.
func replay(ctx context.Context, s *scene.Scene, sched *camera.ManualScheduler, records []camera.Record, onEvent func(int, camera.Event)) (replayReport, error) {
	var rep replayReport
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ev, err := rec.Event(epoch)
		if err != nil {
			return rep, errors.Wrap(errors.ErrCodeMalformedInput, err, "script event %d", i)
		}
		advanceTo(sched, epoch.Add(time.Duration(rec.T)*time.Millisecond))

		if err := s.Handle(ev); err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidGestureSequence) {
				return rep, err
			}
			rep.Rejected = append(rep.Rejected, rejectedEvent{Index: i, Type: ev.Name(), Error: errors.UserMessage(err)})
		} else {
			rep.Applied++
		}
		if onEvent != nil {
			onEvent(i, ev)
		}
	}

	for waited := time.Duration(0); sched.Pending() > 0 && waited < settleLimit; waited += frameInterval {
		sched.Advance(frameInterval)
	}
	rep.Settled = sched.Pending() == 0
	rep.Final = s.Controller().Snapshot()
	return rep, nil
}

// advanceTo runs the scheduler up to t in frame-sized steps.
func advanceTo(sched *camera.ManualScheduler, t time.Time) {
	for d := t.Sub(sched.Now()); d > 0; d = t.Sub(sched.Now()) {
		sched.Advance(min(d, frameInterval))
	}
}
