// tflite.go TensorFlow Lite backed detector
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/errors"
	"github.com/thermalab/thermal-ar-go/internal/frame"
	"github.com/thermalab/thermal-ar-go/internal/logging"
)

// TFLite runs an SSD-style detection model on normalized thermal frames.
// The interpreter is not reentrant, a mutex serializes Invoke calls.
type TFLite struct {
	interpreter *tflite.Interpreter
	labels      []string
	threshold   float32
	width       int
	height      int
	mu          sync.Mutex
}

// NewTFLite loads the model and label file named in settings and prepares an
// interpreter. A missing or unloadable model is an error here; callers that
// want degraded operation should fall back to Disabled.
func NewTFLite(settings *conf.Settings) (*TFLite, error) {
	start := time.Now()
	log := logging.ForService("detector")
	ds := &settings.Realtime.Detector

	modelData, err := os.ReadFile(ds.ModelPath)
	if err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryDetector).
			Context("path", ds.ModelPath).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model").
			Component("detector").
			Category(errors.CategoryDetector).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	labels, err := loadLabels(ds.LabelPath)
	if err != nil {
		return nil, err
	}

	threads := ds.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, userData any) {
		log.Error("tflite error", "message", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.Newf("cannot create tflite interpreter").
			Component("detector").
			Category(errors.CategoryDetector).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		return nil, errors.Newf("tensor allocation failed: %v", status).
			Component("detector").
			Category(errors.CategoryDetector).
			Build()
	}

	// TFLite keeps its own copy of the model data
	runtime.GC()

	input := interpreter.GetInputTensor(0)
	if input == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("detector").
			Category(errors.CategoryDetector).
			Build()
	}
	// SSD input layout: [1, height, width, 3]
	height := input.Dim(1)
	width := input.Dim(2)

	log.Info("detector model loaded",
		"path", ds.ModelPath,
		"input", fmt.Sprintf("%dx%d", width, height),
		"labels", len(labels),
		"threads", threads,
		"elapsed", time.Since(start))

	return &TFLite{
		interpreter: interpreter,
		labels:      labels,
		threshold:   ds.Threshold,
		width:       width,
		height:      height,
	}, nil
}

// Detect normalizes f to the model input range, replicates it to three
// channels and parses the SSD output tensors into detections scaled back to
// frame pixel coordinates.
func (d *TFLite) Detect(ctx context.Context, f *frame.Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sample := d.prepareInput(f)

	d.mu.Lock()
	defer d.mu.Unlock()

	input := d.interpreter.GetInputTensor(0)
	if input == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("detector").
			Category(errors.CategoryDetector).
			Build()
	}
	copy(input.Float32s(), sample)

	if status := d.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("detector").
			Category(errors.CategoryDetector).
			Build()
	}

	// SSD postprocess outputs: boxes, classes, scores, count
	boxes := d.interpreter.GetOutputTensor(0).Float32s()
	classes := d.interpreter.GetOutputTensor(1).Float32s()
	scores := d.interpreter.GetOutputTensor(2).Float32s()
	count := int(d.interpreter.GetOutputTensor(3).Float32s()[0])

	detections := make([]Detection, 0, count)
	for i := 0; i < count && i < len(scores); i++ {
		if scores[i] < d.threshold {
			continue
		}
		// boxes are normalized ymin, xmin, ymax, xmax
		ymin := float64(boxes[i*4+0]) * float64(f.Height)
		xmin := float64(boxes[i*4+1]) * float64(f.Width)
		ymax := float64(boxes[i*4+2]) * float64(f.Height)
		xmax := float64(boxes[i*4+3]) * float64(f.Width)

		label := "unknown"
		if idx := int(classes[i]); idx >= 0 && idx < len(d.labels) {
			label = d.labels[idx]
		}

		detections = append(detections, Detection{
			Box:        [4]float64{xmin, ymin, xmax, ymax},
			Confidence: scores[i],
			Class:      label,
		})
	}

	return detections, nil
}

func (d *TFLite) Available() bool { return true }

func (d *TFLite) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interpreter != nil {
		d.interpreter.Delete()
		d.interpreter = nil
	}
	return nil
}

// prepareInput min-max normalizes the frame to [0, 1] and replicates the
// single thermal channel into the three channels the model expects. The frame
// is resampled to the model geometry with nearest neighbor, thermal frames
// and detection models are close enough in size that this is lossless in
// practice.
func (d *TFLite) prepareInput(f *frame.Frame) []float32 {
	minV, maxV := f.MinMax()
	scale := maxV - minV
	if scale == 0 {
		scale = 1
	}

	sample := make([]float32, d.width*d.height*3)
	for y := 0; y < d.height; y++ {
		srcY := y * f.Height / d.height
		for x := 0; x < d.width; x++ {
			srcX := x * f.Width / d.width
			v := float32((f.At(srcX, srcY) - minV) / scale)
			base := (y*d.width + x) * 3
			sample[base] = v
			sample[base+1] = v
			sample[base+2] = v
		}
	}
	return sample
}

// loadLabels reads one label per line.
func loadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryDetector).
			Context("path", path).
			Build()
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component("detector").
			Category(errors.CategoryDetector).
			Context("path", path).
			Build()
	}
	return labels, nil
}
