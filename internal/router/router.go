// Package router implements the WebSocket distribution protocol: role
// registration, frame submission and annotation fan-out, remote control
// forwarding, telemetry relay, and recording control.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/logging"
	"github.com/thermalab/thermal-ar-go/internal/observability"
	"github.com/thermalab/thermal-ar-go/internal/observability/metrics"
	"github.com/thermalab/thermal-ar-go/internal/pipeline"
	"github.com/thermalab/thermal-ar-go/internal/recording"
)

// statsEvery is the received-frame interval at which stats are pushed to
// the submitting device.
const statsEvery = 60

// formatWarnFrames is how many initial frames of a stream have their
// format hint checked against the detected format.
const formatWarnFrames = 3

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16384,
	// Origin checks are handled by the HTTP layer in front of the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Router dispatches protocol messages between device and viewer
// connections. Frame processing runs inline in each device's read loop so
// one device's frames are handled in submission order.
type Router struct {
	settings *conf.Settings
	hub      *Hub
	engine   *analysis.Engine
	cal      frame.Calibration
	recorder *recording.Manager
	metrics  *observability.Metrics
	log      *slog.Logger

	detectorLoaded bool

	// sink receives every produced annotation, used for broker export
	sink func(deviceID string, ann *analysis.Annotation)
}

// New creates a router wired to the shared analysis engine and recording
// manager.
func New(settings *conf.Settings, engine *analysis.Engine, cal frame.Calibration, recorder *recording.Manager, m *observability.Metrics, detectorLoaded bool) *Router {
	r := &Router{
		settings:       settings,
		engine:         engine,
		cal:            cal,
		recorder:       recorder,
		metrics:        m,
		log:            logging.ForService("router"),
		detectorLoaded: detectorLoaded,
	}
	if m != nil {
		r.hub = NewHub(m.Router)
	} else {
		r.hub = NewHub(nil)
	}
	return r
}

// Hub exposes the connection registry, used by the status endpoints.
func (r *Router) Hub() *Hub { return r.hub }

// StatsSnapshot returns the current aggregate stats report, used by the
// status endpoints.
func (r *Router) StatsSnapshot() StatsReport { return r.buildStats() }

// DeviceStatus summarizes one connected device for the status page.
type DeviceStatus struct {
	DeviceID string `json:"device_id"`
	LastSeen string `json:"last_seen"`
}

// DeviceStatuses lists the connected devices with their last pong times.
func (r *Router) DeviceStatuses() []DeviceStatus {
	devices := r.hub.Devices()
	statuses := make([]DeviceStatus, 0, len(devices))
	for _, d := range devices {
		statuses = append(statuses, DeviceStatus{
			DeviceID: d.DeviceID(),
			LastSeen: d.LastSeen().Format(time.RFC3339),
		})
	}
	return statuses
}

// SetAnnotationSink installs a callback invoked for every produced
// annotation. Must be called before the first connection is served.
func (r *Router) SetAnnotationSink(sink func(deviceID string, ann *analysis.Annotation)) {
	r.sink = sink
}

// ServeWS upgrades an HTTP request to a WebSocket connection and starts its
// pumps.
func (r *Router) ServeWS(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		r.log.Error("websocket upgrade failed", "remote", ctx.RealIP(), "error", err)
		return err
	}

	client := newClient(conn, uuid.NewString())
	r.hub.Add(client)
	r.log.Info("client connected", "client", client.ID(), "remote", ctx.RealIP())

	client.TrySend(marshal(ServerReady{
		Type:            TypeServerReady,
		Status:          "ready",
		DetectorLoaded:  r.detectorLoaded,
		ServerName:      r.settings.Main.Name,
		ProtocolVersion: 1,
	}))

	go client.writePump()
	go client.readPump(r, r.log)
	return nil
}

// Handle dispatches one raw protocol message from a client.
func (r *Router) Handle(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "malformed message"}))
		return
	}
	if r.metrics != nil {
		r.metrics.Router.MessagesRouted.WithLabelValues(env.Type).Inc()
	}

	switch env.Type {
	case TypeRegisterDevice:
		r.handleRegisterDevice(c, raw)
	case TypeRegisterViewer:
		r.handleRegisterViewer(c)
	case TypeThermalFrame:
		r.handleThermalFrame(c, raw)
	case TypeSetMode:
		r.handleSetMode(c, raw)
	case TypeStartRecording:
		r.handleStartRecording(c, raw)
	case TypeStopRecording:
		r.handleStopRecording(c)
	case TypeGetStats:
		c.TrySend(marshal(r.buildStats()))
	case TypeBatteryStatus, TypeNetworkStats:
		// telemetry relays to viewers untouched
		r.hub.BroadcastRole(raw, RoleViewer, c)
	case TypeCaptureSnapshot, TypePreviousDetection, TypeNextDetection,
		TypeToggleOverlay, TypeSetAutoSnapshot:
		// remote control forwards to devices, a no-op when none is
		// registered so transient disconnects do not alarm viewers
		r.hub.BroadcastRole(raw, RoleDevice, c)
	default:
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "unknown message type: " + env.Type}))
	}
}

func (r *Router) handleRegisterDevice(c *Client, raw []byte) {
	var msg RegisterDevice
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "malformed registration"}))
		return
	}

	deviceID := msg.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	p := pipeline.New(deviceID, r.settings, r.cal, r.engine, r.recorder, r.pipelineMetrics())
	c.bindDevice(deviceID, p)
	r.hub.Promote(c, RoleDevice)

	r.log.Info("device registered", "client", c.ID(), "device", deviceID)
	r.hub.Broadcast(marshal(DevicePresence{Type: TypeDeviceConnected, DeviceID: deviceID}), c)
}

func (r *Router) handleRegisterViewer(c *Client) {
	r.hub.Promote(c, RoleViewer)
	r.log.Info("viewer registered", "client", c.ID())

	// replay current device presence so the viewer starts with a
	// consistent picture; with no device registered the viewer still gets
	// an explicit disconnected status
	devices := r.hub.Devices()
	if len(devices) == 0 {
		c.TrySend(marshal(DevicePresence{Type: TypeDeviceDisconnected}))
		return
	}
	for _, d := range devices {
		c.TrySend(marshal(DevicePresence{Type: TypeDeviceConnected, DeviceID: d.DeviceID()}))
	}
}

func (r *Router) handleThermalFrame(c *Client, raw []byte) {
	if c.Role() != RoleDevice {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "connection is not registered as a device"}))
		return
	}

	var msg FrameSubmission
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "malformed frame submission"}))
		return
	}

	mode := c.Mode()
	if msg.Mode != "" {
		mode = analysis.Mode(msg.Mode)
	}

	p := c.Pipeline()
	ann, format, err := p.Submit(context.Background(), msg.Frame, mode)
	if err != nil {
		// the failed cycle is isolated to this frame, only the sender
		// hears about it
		r.log.Warn("frame processing failed",
			"device", c.DeviceID(), "frame", msg.FrameNumber, "error", err)
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: err.Error()}))
		return
	}

	r.checkFormatHint(c, &msg, format)

	if ann != nil {
		out := marshal(Annotations{
			Type:            TypeAnnotations,
			Annotation:      ann,
			ServerTimestamp: time.Now().UnixMilli(),
			ClientTimestamp: msg.ClientTimestamp,
			FormatConfirmed: string(format),
		})
		c.TrySend(out)
		r.hub.BroadcastRole(out, RoleViewer, c)
		if r.sink != nil && ann.FrameNumber == p.FrameCount() {
			// only freshly produced annotations leave the server, cached
			// repeats on decimated frames stay local
			r.sink(c.DeviceID(), ann)
		}
	}

	if p.FrameCount()%statsEvery == 0 {
		c.TrySend(marshal(r.buildStats()))
	}
}

// checkFormatHint compares the device's claimed wire format against what
// was actually detected, logging a mismatch for the first frames of a
// stream.
func (r *Router) checkFormatHint(c *Client, msg *FrameSubmission, detected frame.Format) {
	if msg.FormatHint == "" || msg.FrameNumber > formatWarnFrames {
		return
	}
	r.log.Info("frame format",
		"device", c.DeviceID(),
		"frame", msg.FrameNumber,
		"hint", msg.FormatHint,
		"detected", string(detected),
		"size", len(msg.Frame),
		"has_temperature", msg.HasTemperature)
	if msg.FormatHint != string(detected) {
		r.log.Warn("format mismatch between device hint and detected format",
			"device", c.DeviceID(), "hint", msg.FormatHint, "detected", string(detected))
	}
}

func (r *Router) handleSetMode(c *Client, raw []byte) {
	var msg SetMode
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "malformed mode change"}))
		return
	}

	mode, err := analysis.ParseMode(msg.Mode)
	if err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: err.Error()}))
		return
	}

	if c.Role() == RoleDevice {
		c.setMode(mode)
	} else {
		// a viewer changed the mode, apply it to every device stream and
		// forward the command so devices can adjust their capture side
		for _, d := range r.hub.Devices() {
			d.setMode(mode)
		}
		r.hub.BroadcastRole(raw, RoleDevice, c)
	}

	ack := marshal(SetMode{Type: TypeModeChanged, Mode: string(mode)})
	c.TrySend(ack)
	r.hub.BroadcastRole(ack, RoleViewer, c)
	r.log.Info("analysis mode changed", "mode", string(mode), "by", c.ID())
}

func (r *Router) handleStartRecording(c *Client, raw []byte) {
	var msg StartRecording
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.TrySend(marshal(ErrorReply{Type: TypeError, Message: "malformed recording request"}))
		return
	}

	name, err := r.recorder.Start(msg.SessionName)
	if err != nil {
		active, _ := r.recorder.Active()
		c.TrySend(marshal(RecordingStatus{
			Type:        TypeRecordingStatus,
			Recording:   true,
			SessionName: active,
			Message:     "Failed to start recording: " + err.Error(),
		}))
		return
	}

	status := marshal(RecordingStatus{
		Type:        TypeRecordingStatus,
		Recording:   true,
		SessionName: name,
		Message:     "Recording started",
	})
	c.TrySend(status)
	r.hub.BroadcastRole(status, RoleViewer, c)
}

func (r *Router) handleStopRecording(c *Client) {
	meta, err := r.recorder.Stop()
	if err != nil {
		c.TrySend(marshal(RecordingStatus{
			Type:      TypeRecordingStatus,
			Recording: false,
			Message:   "No recording in progress",
		}))
		return
	}

	status := marshal(RecordingStatus{
		Type:        TypeRecordingStatus,
		Recording:   false,
		SessionName: meta.SessionName,
		TotalFrames: meta.TotalFrames,
		Message:     "Recording stopped",
	})
	c.TrySend(status)
	r.hub.BroadcastRole(status, RoleViewer, c)
}

// disconnect tears down one connection's registry state. The last device
// leaving stops any active recording so sessions never trail off open.
func (r *Router) disconnect(c *Client) {
	wasDevice := c.Role() == RoleDevice
	deviceID := c.DeviceID()
	r.hub.Remove(c)
	close(c.send)

	r.log.Info("client disconnected", "client", c.ID(), "role", string(c.Role()))
	if !wasDevice {
		return
	}

	r.hub.Broadcast(marshal(DevicePresence{Type: TypeDeviceDisconnected, DeviceID: deviceID}), c)

	if len(r.hub.Devices()) == 0 {
		if _, active := r.recorder.Active(); active {
			if _, err := r.recorder.Stop(); err == nil {
				r.log.Info("auto-stopped recording on device disconnect", "device", deviceID)
			}
		}
	}
}

func (r *Router) pipelineMetrics() *metrics.PipelineMetrics {
	if r.metrics == nil {
		return nil
	}
	return r.metrics.Pipeline
}
