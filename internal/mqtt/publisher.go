package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/logging"
)

// Publisher forwards produced annotations to the broker under a per-device
// topic. Publishing runs off the processing path, a slow broker never
// stalls frame handling.
type Publisher struct {
	client Client
	topic  string
	log    *slog.Logger
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(settings *conf.Settings, client Client) *Publisher {
	return &Publisher{
		client: client,
		topic:  settings.Realtime.MQTT.Topic,
		log:    logging.ForService("mqtt"),
	}
}

// AnnotationSink returns a callback suitable for the router's annotation
// sink hook.
func (p *Publisher) AnnotationSink() func(deviceID string, ann *analysis.Annotation) {
	return func(deviceID string, ann *analysis.Annotation) {
		payload, err := json.Marshal(ann)
		if err != nil {
			p.log.Error("failed to encode annotation", "device", deviceID, "error", err)
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			topic := p.topic + "/annotations/" + deviceID
			if err := p.client.Publish(ctx, topic, string(payload)); err != nil {
				p.log.Warn("failed to publish annotation", "topic", topic, "error", err)
			}
		}()
	}
}
