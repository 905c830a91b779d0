// Command scrollsim replays recorded or synthetic scroll input through the
// kinetic scroll core and reports the per-frame positions it produces.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/libtouch/internal/config"
	"github.com/banshee-data/libtouch/internal/monitoring"
	"github.com/banshee-data/libtouch/internal/scroll"
	"github.com/banshee-data/libtouch/internal/trace"
	"github.com/banshee-data/libtouch/internal/vector"
	"github.com/banshee-data/libtouch/internal/version"
)

var (
	tracePath   = flag.String("trace", "", "JSONL trace to replay (- for stdin)")
	configPath  = flag.String("config", "", "Tuning config (.json, .yaml or .yml); built-in defaults when empty")
	synthetic   = flag.String("synthetic", "", "Synthetic gesture, e.g. axis=y,count=12,interval=8,amount=-6,fling,diagonal")
	dbPath      = flag.String("db", "", "SQLite trace store; the trace and its frames are saved when set")
	sessionID   = flag.String("session", "", "Replay a stored session from -db instead of -trace")
	listStored  = flag.Bool("list", false, "List sessions stored in -db and exit")
	geometry    = flag.String("geometry", "", "contentH,contentW,viewportH,viewportW")
	htmlPath    = flag.String("html", "", "Write an interactive chart to this file")
	pngPath     = flag.String("png", "", "Write a static plot to this file")
	realtime    = flag.Bool("realtime", false, "Pace the replay with the wall clock instead of running it offline")
	frametime   = flag.Float64("frametime", -1, "Average frametime in ms; overrides config when >= 0")
	predict     = flag.Float64("predict", -1, "Time to next page flip in ms; overrides config when >= 0")
	drainFrames = flag.Int("drain", trace.DefaultDrainFrames, "Max frames to step after the last record while a fling decays")
	verbose     = flag.Bool("v", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("scrollsim", version.String())
		return
	}
	monitoring.SetDebug(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("scrollsim: %v", err)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	var store *trace.Store
	if *dbPath != "" {
		s, err := trace.OpenStore(*dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	if *listStored {
		if store == nil {
			return errors.New("-list requires -db")
		}
		return listSessions(store, stdout)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	view, err := newView(cfg)
	if err != nil {
		return err
	}
	defer view.Destroy()

	records, name, stored, err := loadRecords(store, stdin)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return errors.New("trace is empty")
	}
	monitoring.Logf("scrollsim: replaying %d records from %s", len(records), name)

	frames, err := replay(ctx, view, records)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}

	if store != nil {
		id := stored
		if id == uuid.Nil {
			id, err = store.SaveSession(name, view.Source().String(), records)
			if err != nil {
				return err
			}
		}
		if err := store.SaveFrames(id, frames); err != nil {
			return err
		}
		monitoring.Logf("scrollsim: stored session %s (%d frames)", id, len(frames))
	}

	if *htmlPath != "" {
		if err := writeHTML(*htmlPath, name, frames); err != nil {
			return err
		}
	}
	if *pngPath != "" {
		if err := trace.RenderPNG(*pngPath, name, frames); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// newView builds the view from cfg and applies the command-line overrides.
func newView(cfg *config.TuningConfig) (*scroll.View, error) {
	v, err := cfg.NewView()
	if err != nil {
		return nil, err
	}
	if *geometry != "" {
		g, err := parseGeometry(*geometry)
		if err != nil {
			return nil, err
		}
		v.SetGeometry(g.ContentHeight, g.ContentWidth, g.ViewportHeight, g.ViewportWidth)
	}
	if *frametime >= 0 {
		v.SetAvgFrametime(*frametime)
	}
	if *predict >= 0 {
		v.SetNextFramePredict(*predict)
	}
	return v, nil
}

// loadRecords picks the input: a stored session, a trace file, or a
// synthetic gesture, in that order. stored is the session ID when the
// records came from the store.
func loadRecords(store *trace.Store, stdin io.Reader) (records []trace.Record, name string, stored uuid.UUID, err error) {
	switch {
	case *sessionID != "":
		if store == nil {
			return nil, "", uuid.Nil, errors.New("-session requires -db")
		}
		id, err := uuid.Parse(*sessionID)
		if err != nil {
			return nil, "", uuid.Nil, fmt.Errorf("invalid session id: %w", err)
		}
		sess, err := store.Session(id)
		if err != nil {
			return nil, "", uuid.Nil, err
		}
		records, err = store.LoadSession(id)
		return records, sess.Name, id, err

	case *tracePath == "-":
		records, err = trace.ReadJSONL(stdin)
		return records, "stdin", uuid.Nil, err

	case *tracePath != "":
		f, err := os.Open(*tracePath)
		if err != nil {
			return nil, "", uuid.Nil, fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		records, err = trace.ReadJSONL(f)
		return records, *tracePath, uuid.Nil, err

	case *synthetic != "":
		g, err := parseGesture(*synthetic)
		if err != nil {
			return nil, "", uuid.Nil, err
		}
		return trace.Synthesize(g), "synthetic " + *synthetic, uuid.Nil, nil
	}
	return nil, "", uuid.Nil, errors.New("one of -trace, -synthetic or -session is required")
}

func replay(ctx context.Context, v *scroll.View, records []trace.Record) ([]trace.FrameResult, error) {
	if !*realtime {
		return trace.Replay(v, records, *drainFrames)
	}

	interval := time.Duration(v.Timing().AvgFrametime * float64(time.Millisecond))
	p := &trace.Player{View: v, FrameInterval: interval}
	var frames []trace.FrameResult
	err := p.Run(ctx, records, func(f trace.FrameResult) {
		frames = append(frames, f)
	})
	return frames, err
}

func writeHTML(path, title string, frames []trace.FrameResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := trace.RenderHTML(f, title, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listSessions(store *trace.Store, w io.Writer) error {
	sessions, err := store.ListSessions()
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Source, s.RecordCount, s.Name)
	}
	return nil
}

// parseGeometry parses "contentH,contentW,viewportH,viewportW".
func parseGeometry(s string) (scroll.Geometry, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return scroll.Geometry{}, fmt.Errorf("geometry needs 4 values, got %d", len(parts))
	}
	var vals [4]uint64
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return scroll.Geometry{}, fmt.Errorf("invalid geometry value '%s': %w", p, err)
		}
		vals[i] = v
	}
	return scroll.Geometry{
		ContentHeight:  vals[0],
		ContentWidth:   vals[1],
		ViewportHeight: vals[2],
		ViewportWidth:  vals[3],
	}, nil
}

// parseGesture parses a comma-separated list of key=value settings and
// bare flags into a trace.Gesture.
func parseGesture(s string) (trace.Gesture, error) {
	g := trace.Gesture{Count: 10, Interval: 16, Amount: 10}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, "=")
		var err error
		switch key {
		case "fling":
			g.Fling = true
		case "diagonal":
			g.Diagonal = true
		case "axis":
			switch val {
			case "x", "horizontal":
				g.Axis = vector.Horizontal
			case "y", "vertical":
				g.Axis = vector.Vertical
			default:
				err = fmt.Errorf("unknown axis %q", val)
			}
		case "start":
			g.Start, err = strconv.ParseUint(val, 10, 64)
		case "count":
			g.Count, err = strconv.Atoi(val)
			if err == nil && g.Count < 1 {
				err = errors.New("must be at least 1")
			}
		case "interval":
			g.Interval, err = strconv.ParseUint(val, 10, 64)
		case "amount":
			var a int64
			a, err = strconv.ParseInt(val, 10, 32)
			g.Amount = int32(a)
		default:
			return trace.Gesture{}, fmt.Errorf("unknown gesture setting %q", key)
		}
		if !hasVal && key != "fling" && key != "diagonal" {
			return trace.Gesture{}, fmt.Errorf("gesture setting %q needs a value", key)
		}
		if err != nil {
			return trace.Gesture{}, fmt.Errorf("invalid gesture %s: %w", key, err)
		}
	}
	return g, nil
}
