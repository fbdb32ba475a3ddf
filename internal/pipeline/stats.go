package pipeline

// Exponential moving average weight for the latency estimate; matches a
// smoothing horizon of roughly ten processed frames.
const latencyEMAWeight = 0.1

// Stats are the observability counters of one device stream. The zero value
// is ready to use.
type Stats struct {
	FramesReceived  uint64  `json:"frames_received"`
	FramesProcessed uint64  `json:"frames_processed"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	DroppedFrames   uint64  `json:"dropped_frames"`
}

// observeLatency folds one processing latency sample into the moving
// average.
func (s *Stats) observeLatency(latencyMs float64) {
	if s.FramesProcessed <= 1 {
		s.AvgLatencyMs = latencyMs
		return
	}
	s.AvgLatencyMs = s.AvgLatencyMs*(1-latencyEMAWeight) + latencyMs*latencyEMAWeight
}

// Merge adds the counters of other into s, averaging the latency estimates.
// Used to aggregate multiple device streams into server-wide stats.
func (s *Stats) Merge(other Stats) {
	s.FramesReceived += other.FramesReceived
	s.FramesProcessed += other.FramesProcessed
	s.DroppedFrames += other.DroppedFrames
	if s.AvgLatencyMs == 0 {
		s.AvgLatencyMs = other.AvgLatencyMs
	} else if other.AvgLatencyMs > 0 {
		s.AvgLatencyMs = (s.AvgLatencyMs + other.AvgLatencyMs) / 2
	}
}
