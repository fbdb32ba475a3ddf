package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalab/thermal-ar-go/internal/analysis"
	"github.com/thermalab/thermal-ar-go/internal/conf"
)

type published struct {
	topic   string
	payload string
}

type fakeClient struct {
	messages chan published
}

func (f *fakeClient) Connect(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool             { return true }
func (f *fakeClient) Disconnect()                   {}
func (f *fakeClient) Publish(_ context.Context, topic, payload string) error {
	f.messages <- published{topic: topic, payload: payload}
	return nil
}

func TestAnnotationSinkPublishesPerDeviceTopic(t *testing.T) {
	settings := &conf.Settings{}
	settings.Realtime.MQTT.Topic = "thermal-ar"

	fake := &fakeClient{messages: make(chan published, 1)}
	sink := NewPublisher(settings, fake).AnnotationSink()

	sink("glass-1", &analysis.Annotation{Mode: analysis.ModeBuilding, FrameNumber: 2})

	select {
	case msg := <-fake.messages:
		assert.Equal(t, "thermal-ar/annotations/glass-1", msg.topic)
		var ann analysis.Annotation
		require.NoError(t, json.Unmarshal([]byte(msg.payload), &ann))
		assert.Equal(t, analysis.ModeBuilding, ann.Mode)
		assert.Equal(t, uint64(2), ann.FrameNumber)
	case <-time.After(time.Second):
		t.Fatal("expected a published annotation")
	}
}
