// Package server wires the subsystems together and runs them until
// shutdown: detector, analysis engine, recording, distribution router, web
// server, discovery responder, and the optional MQTT and telemetry
// endpoints.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/datastore"
	"github.com/thermalab/thermal-ar-go/internal/detector"
	"github.com/thermalab/thermal-ar-go/internal/discovery"
	"github.com/thermalab/thermal-ar-go/internal/errors"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/httpcontroller"
	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/mqtt"
	"github.com/thermalab/thermal-ar-go/internal/observability"
	"github.com/thermalab/thermal-ar-go/internal/recording"
	"github.com/thermalab/thermal-ar-go/internal/router"
)

// Run starts every configured subsystem and blocks until a termination
// signal arrives or one of them fails.
func Run(settings *conf.Settings) error {
	log := logging.ForService("server")

	if settings.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              settings.Sentry.DSN,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("sentry initialization failed, error reporting disabled", "error", err)
		} else {
			errors.EnableReporting()
			defer sentry.Flush(2 * time.Second)
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("failed to close datastore", "error", err)
		}
	}()

	cal := frame.LoadCalibration(settings.CalibrationPath, log)

	det := newDetector(settings)
	defer func() {
		if err := det.Close(); err != nil {
			log.Error("failed to close detector", "error", err)
		}
	}()

	engine := analysis.New(det, settings)
	recorder := recording.NewManager(settings, ds, metrics.Recording)
	rtr := router.New(settings, engine, cal, recorder, metrics, det.Available())

	var mqttClient mqtt.Client
	if settings.Realtime.MQTT.Enabled {
		mqttClient = mqtt.NewClient(settings)
		connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mqttClient.Connect(connectCtx); err != nil {
			log.Warn("initial MQTT connection failed, continuing without broker", "error", err)
		}
		cancel()
		defer mqttClient.Disconnect()
		rtr.SetAnnotationSink(mqtt.NewPublisher(settings, mqttClient).AnnotationSink())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	web := httpcontroller.New(settings, rtr, ds)
	g.Go(func() error { return web.Start(ctx) })

	if settings.Discovery.Enabled {
		responder, err := discovery.New(settings)
		if err != nil {
			// a dead discovery socket means devices can never find us
			return err
		}
		g.Go(func() error { return responder.Serve(ctx) })
	}

	if settings.Realtime.Telemetry.Enabled {
		g.Go(func() error { return metrics.Serve(ctx, settings.Realtime.Telemetry.Listen) })
	}

	log.Info("server started",
		"name", settings.Main.Name,
		"port", settings.WebServer.Port,
		"detector", det.Available(),
		"discovery", settings.Discovery.Enabled)

	err = g.Wait()
	if _, active := recorder.Active(); active {
		if _, stopErr := recorder.Stop(); stopErr == nil {
			log.Info("finalized recording session on shutdown")
		}
	}
	log.Info("server stopped")
	return err
}

// newDetector loads the TFLite detector when configured, falling back to
// the disabled detector so analysis degrades instead of failing.
func newDetector(settings *conf.Settings) detector.Detector {
	if !settings.Realtime.Detector.Enabled {
		return detector.Disabled{}
	}

	det, err := detector.NewTFLite(settings)
	if err != nil {
		logging.ForService("server").Warn("object detector unavailable, analysis runs without detections", "error", err)
		return detector.Disabled{}
	}
	return det
}
