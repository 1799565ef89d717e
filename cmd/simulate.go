package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/smazurov/shutterdeck/internal/capture"
	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/device/sim"
	"github.com/smazurov/shutterdeck/internal/events"
	"github.com/smazurov/shutterdeck/internal/gesture"
	"github.com/smazurov/shutterdeck/internal/logging"
)

// Script is a scripted session against the simulated camera.
//
//	tick_interval_ms = 100
//	mode = "video"
//
//	[[step]]
//	do = "shutter"
//
//	[[step]]
//	do = "wait"
//	wait_ms = 500
type Script struct {
	TickIntervalMs  int     `toml:"tick_interval_ms"`
	ChunkIntervalMs int     `toml:"chunk_interval_ms"`
	SwipeThreshold  float64 `toml:"swipe_threshold"`
	Facing          string  `toml:"facing"`
	Mode            string  `toml:"mode"`
	SettleMs        int     `toml:"settle_ms"`
	Steps           []Step  `toml:"step"`
}

// Step is one scripted intent.
type Step struct {
	Do     string          `toml:"do"`
	Mode   string          `toml:"mode"`
	Zoom   float64         `toml:"zoom"`
	Points []gesture.Point `toml:"points"`
	Source string          `toml:"source"`
	Delay  int             `toml:"delay_seconds"`
	WaitMs int             `toml:"wait_ms"`
	Facing string          `toml:"facing"`
	Fail   string          `toml:"fail"` // permission, device or empty to recover
}

// LoadScript parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

// CreateSimulateCmd creates the simulate command.
func CreateSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script.toml>",
		Short: "Drive the capture machine from a script against a simulated camera",
		Long: `Runs the capture machine with the in-memory camera backend, executes the
intents listed in the script and prints every published event as a JSON line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := LoadScript(args[0])
			if err != nil {
				return err
			}
			return RunScript(cmd.Context(), script, cmd.OutOrStdout())
		},
	}
}

// lockedWriter serializes event and step output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) line(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, string(data))
}

type stepLine struct {
	Step   int    `json:"step"`
	Do     string `json:"do"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type eventLine struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RunScript runs script to completion and writes its transcript to out.
func RunScript(ctx context.Context, script *Script, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := capture.Options{
		Bus:            events.New(),
		TickInterval:   time.Duration(script.TickIntervalMs) * time.Millisecond,
		SwipeThreshold: script.SwipeThreshold,
		Logger:         logging.GetLogger("capture"),
	}
	if script.Facing != "" {
		f, err := device.ParseFacing(script.Facing)
		if err != nil {
			return err
		}
		opts.Facing = f
	}
	if script.Mode != "" {
		m, err := capture.ParseMode(script.Mode)
		if err != nil {
			return err
		}
		opts.Mode = m
	}

	chunkInterval := 100 * time.Millisecond
	if script.ChunkIntervalMs > 0 {
		chunkInterval = time.Duration(script.ChunkIntervalMs) * time.Millisecond
	}
	dev := sim.New()
	sink := sim.NewSink()
	opts.Device = dev
	opts.Recorder = sim.NewRecorder(chunkInterval)
	opts.Sink = sink

	machine, err := capture.NewMachine(opts)
	if err != nil {
		return err
	}

	w := &lockedWriter{w: out}
	eventCh := make(chan any, 256)
	unsubscribe := events.SubscribeAll(opts.Bus, eventCh)
	stopPrinting := make(chan struct{})
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		emit := func(ev any) {
			w.line(eventLine{Event: reflect.TypeOf(ev).Name(), Data: ev})
		}
		for {
			select {
			case ev := <-eventCh:
				emit(ev)
			case <-stopPrinting:
				for {
					select {
					case ev := <-eventCh:
						emit(ev)
					default:
						return
					}
				}
			}
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() { runDone <- machine.Run(runCtx) }()

	stepErr := runSteps(runCtx, machine, dev, sink, script.Steps, w)

	settle := 100 * time.Millisecond
	if script.SettleMs > 0 {
		settle = time.Duration(script.SettleMs) * time.Millisecond
	}
	time.Sleep(settle)

	cancel()
	runErr := <-runDone
	// Let in-flight deliveries land before the final drain.
	time.Sleep(20 * time.Millisecond)
	unsubscribe()
	close(stopPrinting)
	<-printed

	return errors.Join(stepErr, runErr)
}

func runSteps(ctx context.Context, m *capture.Machine, dev *sim.Device, sink *sim.Sink, steps []Step, w *lockedWriter) error {
	for i, step := range steps {
		result, err := runStep(ctx, m, dev, sink, step)
		line := stepLine{Step: i + 1, Do: step.Do, Result: result}
		if err != nil {
			line.Error = err.Error()
		}
		w.line(line)

		if errors.Is(err, errUnknownStep) || errors.Is(err, capture.ErrClosed) || ctx.Err() != nil {
			return fmt.Errorf("step %d: %w", i+1, errors.Join(err, ctx.Err()))
		}
	}
	return nil
}

var errUnknownStep = errors.New("unknown step")

func runStep(ctx context.Context, m *capture.Machine, dev *sim.Device, sink *sim.Sink, step Step) (any, error) {
	switch step.Do {
	case "shutter":
		return m.PressShutter(ctx)
	case "switch":
		return nil, m.SwitchCamera(ctx)
	case "retry":
		return nil, m.Retry(ctx)
	case "mode":
		mode, err := capture.ParseMode(step.Mode)
		if err != nil {
			return nil, err
		}
		return nil, m.SetMode(ctx, mode)
	case "zoom":
		return nil, m.SetZoom(ctx, step.Zoom)
	case "touch_start":
		return nil, m.TouchStart(ctx, step.Points)
	case "touch_move":
		return nil, m.TouchMove(ctx, step.Points)
	case "touch_end":
		return nil, m.TouchEnd(ctx)
	case "overlay":
		return nil, m.SetOverlay(ctx, &capture.Overlay{Source: step.Source, DelaySeconds: step.Delay})
	case "clear_overlay":
		return nil, m.ClearOverlay(ctx)
	case "overlay_ended":
		return nil, m.OverlayEnded(ctx)
	case "state":
		return m.Snapshot(ctx)
	case "wait":
		select {
		case <-time.After(time.Duration(step.WaitMs) * time.Millisecond):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	case "fail_camera":
		facing, err := device.ParseFacing(step.Facing)
		if err != nil {
			return nil, err
		}
		dev.FailAcquire(facing, simulatedFailure("acquire", step.Fail))
		return nil, nil
	case "fail_render":
		sink.FailRender(simulatedFailure("render", step.Fail))
		return nil, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownStep, step.Do)
	}
}

func simulatedFailure(op, kind string) error {
	switch kind {
	case "":
		return nil
	case "permission":
		return device.PermissionDenied(op, errors.New("simulated denial"))
	default:
		return device.Failure(op, errors.New("simulated failure"))
	}
}
