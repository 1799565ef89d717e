package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/shutterdeck/cmd"
	"github.com/smazurov/shutterdeck/internal/api"
	"github.com/smazurov/shutterdeck/internal/capture"
	"github.com/smazurov/shutterdeck/internal/config"
	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/device/ffmpegdev"
	"github.com/smazurov/shutterdeck/internal/device/sim"
	"github.com/smazurov/shutterdeck/internal/events"
	"github.com/smazurov/shutterdeck/internal/led"
	"github.com/smazurov/shutterdeck/internal/logging"
	"github.com/smazurov/shutterdeck/internal/metrics"
	"github.com/smazurov/shutterdeck/internal/settings"
	"github.com/smazurov/shutterdeck/internal/systemd"
	"github.com/smazurov/shutterdeck/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Device settings
	DeviceBackend     string `help:"Camera backend (sim, v4l2)" default:"v4l2" toml:"device.backend" env:"DEVICE_BACKEND"`
	DeviceFront       string `help:"Front (user) camera device" default:"/dev/video2" toml:"device.front" env:"DEVICE_FRONT"`
	DeviceBack        string `help:"Back (environment) camera device" default:"/dev/video0" toml:"device.back" env:"DEVICE_BACK"`
	DeviceFFmpeg      string `help:"Path to the ffmpeg binary" default:"ffmpeg" toml:"device.ffmpeg" env:"DEVICE_FFMPEG"`
	DeviceInputFormat string `help:"V4L2 input format" default:"mjpeg" toml:"device.input_format" env:"DEVICE_INPUT_FORMAT"`
	DeviceResolution  string `help:"Capture resolution" default:"1280x720" toml:"device.resolution" env:"DEVICE_RESOLUTION"`
	DeviceFPS         string `help:"Capture frame rate" default:"30" toml:"device.fps" env:"DEVICE_FPS"`
	DeviceEncoder     string `help:"Recording video encoder" default:"libx264" toml:"device.encoder" env:"DEVICE_ENCODER"`

	// Capture settings
	CaptureFacing         string `help:"Initial camera (user, environment)" default:"environment" toml:"capture.facing" env:"CAPTURE_FACING"`
	CaptureMode           string `help:"Initial capture mode" default:"photo" toml:"capture.mode" env:"CAPTURE_MODE"`
	CaptureTickIntervalMs int    `help:"Countdown tick interval in milliseconds" default:"16" toml:"capture.tick_interval_ms" env:"CAPTURE_TICK_INTERVAL_MS"`
	CaptureSwipeThreshold int    `help:"Downward swipe distance in pixels" default:"150" toml:"capture.swipe_threshold" env:"CAPTURE_SWIPE_THRESHOLD"`

	// Settings surface
	SettingsOverlayFile string `help:"Overlay settings file, watched for changes" default:"overlay.toml" toml:"settings.overlay_file" env:"SETTINGS_OVERLAY_FILE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool   `help:"Enable tally LED control" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesLEDName    string `help:"sysfs LED to drive, detected from the board when empty" default:"" toml:"features.led_name" env:"FEATURES_LED_NAME"`
	MetricsEnabled     bool   `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Module levels come from [logging.modules]; level and format from
		// the merged options.
		loggingConfig := config.LoadLoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		facing, err := device.ParseFacing(opts.CaptureFacing)
		if err != nil {
			logger.Warn("Invalid initial facing, using environment", "error", err)
			facing = device.FacingEnvironment
		}
		mode, err := capture.ParseMode(opts.CaptureMode)
		if err != nil {
			logger.Warn("Invalid initial mode, using photo", "error", err)
			mode = capture.ModePhoto
		}

		eventBus := events.New()

		machineOpts := capture.Options{
			Bus:            eventBus,
			TickInterval:   time.Duration(opts.CaptureTickIntervalMs) * time.Millisecond,
			SwipeThreshold: float64(opts.CaptureSwipeThreshold),
			Facing:         facing,
			Mode:           mode,
		}
		deviceLogger := logging.GetLogger("device")
		switch opts.DeviceBackend {
		case "sim":
			machineOpts.Device = sim.New()
			machineOpts.Recorder = sim.NewRecorder(200 * time.Millisecond)
			machineOpts.Sink = sim.NewSink()
		default:
			ffCfg := ffmpegdev.Config{
				FFmpegPath: opts.DeviceFFmpeg,
				Devices: map[device.Facing]string{
					device.FacingUser:        opts.DeviceFront,
					device.FacingEnvironment: opts.DeviceBack,
				},
				InputFormat: opts.DeviceInputFormat,
				Resolution:  opts.DeviceResolution,
				FPS:         opts.DeviceFPS,
				Encoder:     opts.DeviceEncoder,
			}
			machineOpts.Device = ffmpegdev.New(ffCfg, deviceLogger)
			machineOpts.Recorder = ffmpegdev.NewRecorder(ffCfg, deviceLogger)
			machineOpts.Sink = ffmpegdev.NewSink(ffCfg, deviceLogger)
		}

		machine, err := capture.NewMachine(machineOpts)
		if err != nil {
			logger.Error("Failed to create capture machine", "error", err)
			os.Exit(1)
		}

		overlaySync := settings.NewSync(opts.SettingsOverlayFile, machine, logging.GetLogger("settings"))

		var ledManager *led.Manager
		if opts.FeaturesLEDControl {
			logger.Info("LED control enabled, initializing")
			ledLogger := logging.GetLogger("led")
			ledManager = led.NewManager(led.New(opts.FeaturesLEDName, ledLogger), eventBus, ledLogger)
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Machine:      machine,
			EventBus:     eventBus,
		}

		var collector *metrics.Collector
		if opts.MetricsEnabled {
			collector = metrics.NewCollector()
			apiOpts.PrometheusHandler = collector.Handler()
		}

		server := api.NewServer(apiOpts)
		notifier := systemd.NewNotifier(logger)

		runCtx, stopMachine := context.WithCancel(context.Background())
		machineDone := make(chan struct{})

		hooks.OnStart(func() {
			if collector != nil {
				collector.Attach(eventBus)
			}
			if ledManager != nil {
				ledManager.Start()
			}

			go func() {
				defer close(machineDone)
				if runErr := machine.Run(runCtx); runErr != nil {
					logger.Error("Capture machine failed", "error", runErr)
				}
			}()

			if startErr := overlaySync.Start(); startErr != nil {
				logger.Warn("Overlay settings not watched", "file", opts.SettingsOverlayFile, "error", startErr)
			}

			notifier.Ready()
			go notifier.Watchdog(runCtx)

			logger.Info("Starting HTTP server", "port", opts.Port, "build", version.Get().String())
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := overlaySync.Stop(); stopErr != nil {
				logger.Warn("Error stopping overlay watcher", "error", stopErr)
			}

			// Finalizes or aborts recording and releases the camera.
			stopMachine()
			select {
			case <-machineDone:
			case <-ctx.Done():
				logger.Warn("Capture machine did not stop in time")
			}

			if ledManager != nil {
				ledManager.Stop()
			}
			if collector != nil {
				collector.Detach()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
