package router

import (
	"encoding/json"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/pipeline"
)

// Message types of the JSON envelope protocol. Every message carries a
// "type" field, the remaining fields are type-specific.
const (
	TypeRegisterDevice     = "register_device"
	TypeRegisterViewer     = "register_viewer"
	TypeThermalFrame       = "thermal_frame"
	TypeAnnotations        = "annotations"
	TypeServerReady        = "server_ready"
	TypeDeviceConnected    = "device_connected"
	TypeDeviceDisconnected = "device_disconnected"
	TypeSetMode            = "set_mode"
	TypeModeChanged        = "mode_changed"
	TypeCaptureSnapshot    = "capture_snapshot"
	TypeStartRecording     = "start_recording"
	TypeStopRecording      = "stop_recording"
	TypeRecordingStatus    = "recording_status"
	TypePreviousDetection  = "previous_detection"
	TypeNextDetection      = "next_detection"
	TypeToggleOverlay      = "toggle_overlay"
	TypeSetAutoSnapshot    = "set_auto_snapshot"
	TypeBatteryStatus      = "battery_status"
	TypeNetworkStats       = "network_stats"
	TypeGetStats           = "get_stats"
	TypeStats              = "stats"
	TypeError              = "error"
)

// Envelope identifies an incoming message before full decoding.
type Envelope struct {
	Type string `json:"type"`
}

// ServerReady is sent to every client right after it connects.
type ServerReady struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	DetectorLoaded  bool   `json:"model_loaded"`
	ServerName      string `json:"server_name"`
	ProtocolVersion int    `json:"protocol_version"`
}

// RegisterDevice assigns the device role to the sending connection.
type RegisterDevice struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id,omitempty"`
}

// FrameSubmission carries one thermal frame from a device. The frame bytes
// travel base64-encoded inside the JSON document.
type FrameSubmission struct {
	Type            string `json:"type"`
	Frame           []byte `json:"frame"`
	Mode            string `json:"mode,omitempty"`
	FrameNumber     uint64 `json:"frame_number"`
	FormatHint      string `json:"format_hint,omitempty"`
	HasTemperature  bool   `json:"has_temperature"`
	ClientTimestamp int64  `json:"client_timestamp,omitempty"`
}

// Annotations is the per-frame analysis result sent back to the device and
// fanned out to viewers.
type Annotations struct {
	Type string `json:"type"`
	*analysis.Annotation
	ServerTimestamp int64  `json:"server_timestamp"`
	ClientTimestamp int64  `json:"client_timestamp,omitempty"`
	FormatConfirmed string `json:"format_confirmed,omitempty"`
}

// DevicePresence announces a device joining or leaving.
type DevicePresence struct {
	Type     string `json:"type"`
	DeviceID string `json:"device_id,omitempty"`
}

// SetMode switches the analysis mode of the device stream.
type SetMode struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// StartRecording requests a new recording session, optionally named.
type StartRecording struct {
	Type        string `json:"type"`
	SessionName string `json:"session_name,omitempty"`
}

// RecordingStatus acknowledges recording state transitions.
type RecordingStatus struct {
	Type        string `json:"type"`
	Recording   bool   `json:"recording"`
	SessionName string `json:"session_name,omitempty"`
	TotalFrames int    `json:"total_frames,omitempty"`
	Message     string `json:"message"`
}

// StatsReport aggregates processing stats across devices plus host load.
type StatsReport struct {
	Type string `json:"type"`
	pipeline.Stats
	DevicesConnected int     `json:"devices_connected"`
	ViewersConnected int     `json:"viewers_connected"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
}

// ErrorReply reports a failed operation back to the sending client only.
type ErrorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func marshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// all outbound message types marshal cleanly, this never fires
		return []byte(`{"type":"error","message":"internal encoding failure"}`)
	}
	return data
}
