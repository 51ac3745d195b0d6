package vision

import (
	"bufio"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/camden-git/clipcatalog/media"
	"gocv.io/x/gocv"
)

const (
	yoloInputSize   = 416
	yoloScaleFactor = 1.0 / 255.0
	frameScale      = 0.4
	nmsThreshold    = 0.4
)

// YOLODetector finds objects in video frames with a Darknet YOLO network
type YOLODetector struct {
	net          gocv.Net
	outputLayers []string
	classes      []string
	threshold    float32
	mu           sync.Mutex // gocv.Net is not safe for concurrent use
}

// NewYOLODetector loads the network and class names. threshold is the
// default confidence cut-off for Detect.
func NewYOLODetector(configPath, weightsPath, classesPath string, threshold float32) (*YOLODetector, error) {
	classes, err := readClassNames(classesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("vision: failed to load network config=%s weights=%s", configPath, weightsPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendCUDA); err == nil && net.SetPreferableTarget(gocv.NetTargetCUDA) == nil {
		log.Println("vision: Set backend/target to CUDA")
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("vision: Set backend/target to CPU (Default)")
	}

	names := net.GetLayerNames()
	var outputs []string
	for _, idx := range net.GetUnconnectedOutLayers() {
		if idx > 0 && idx <= len(names) {
			outputs = append(outputs, names[idx-1])
		}
	}
	if len(outputs) == 0 {
		net.Close()
		return nil, fmt.Errorf("vision: network %s has no output layers", configPath)
	}

	log.Printf("vision: loaded YOLO network with %d classes", len(classes))
	return &YOLODetector{net: net, outputLayers: outputs, classes: classes, threshold: threshold}, nil
}

func readClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to open class names %s: %w", path, err)
	}
	defer f.Close()

	var classes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		classes = append(classes, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vision: failed to read class names %s: %w", path, err)
	}
	return classes, nil
}

func (d *YOLODetector) Close() {
	d.net.Close()
}

// Detect analyzes one frame every opts.SampleRate seconds between the start
// and end offsets and reports every object that survives non-maximum suppression.
func (d *YOLODetector) Detect(path string, opts media.DetectionOptions) ([]media.Label, error) {
	vc, err := openVideo(path)
	if err != nil {
		return nil, err
	}
	defer vc.Close()

	fps := vc.Get(gocv.VideoCaptureFPS)
	frames := int(vc.Get(gocv.VideoCaptureFrameCount))
	if fps <= 0 {
		return nil, fmt.Errorf("vision: video %s reports no frame rate", path)
	}

	start := int(math.Floor(opts.StartOffset * fps))
	end := frames
	if opts.EndOffset > 0 {
		end = int(math.Min(float64(frames), math.Ceil(opts.EndOffset*fps)))
	}
	step := int(math.Round(opts.SampleRate * fps))
	if step < 1 {
		step = 1
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = d.threshold
	}

	if start > 0 {
		vc.Set(gocv.VideoCapturePosFrames, float64(start))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	frame := gocv.NewMat()
	defer frame.Close()
	small := gocv.NewMat()
	defer small.Close()

	var labels []media.Label
	for i := start; i < end; i += step {
		if ok := vc.Read(&frame); !ok || frame.Empty() {
			break
		}
		gocv.Resize(frame, &small, image.Point{}, frameScale, frameScale, gocv.InterpolationLinear)
		offset := float64(i) / fps
		for _, l := range d.detectFrame(small, threshold) {
			l.Offset = offset
			labels = append(labels, l)
		}
		if step > 1 {
			vc.Grab(step - 1)
		}
	}
	log.Printf("vision: found %d object(s) in %s", len(labels), path)
	return labels, nil
}

func (d *YOLODetector) detectFrame(img gocv.Mat, threshold float32) []media.Label {
	width, height := float32(img.Cols()), float32(img.Rows())

	blob := gocv.BlobFromImage(img, yoloScaleFactor, image.Pt(yoloInputSize, yoloInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outputLayers)
	defer func() {
		for _, m := range outs {
			m.Close()
		}
	}()

	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int
	for _, out := range outs {
		for row := 0; row < out.Rows(); row++ {
			classID, confidence := -1, float32(0)
			for col := 5; col < out.Cols(); col++ {
				if score := out.GetFloatAt(row, col); score > confidence {
					classID, confidence = col-5, score
				}
			}
			if classID < 0 || confidence <= threshold {
				continue
			}
			cx := out.GetFloatAt(row, 0) * width
			cy := out.GetFloatAt(row, 1) * height
			w := out.GetFloatAt(row, 2) * width
			h := out.GetFloatAt(row, 3) * height
			x, y := int(cx-w/2), int(cy-h/2)
			boxes = append(boxes, image.Rect(x, y, x+int(w), y+int(h)))
			confidences = append(confidences, confidence)
			classIDs = append(classIDs, classID)
		}
	}
	if len(boxes) == 0 {
		return nil
	}

	var labels []media.Label
	for _, idx := range gocv.NMSBoxes(boxes, confidences, threshold, nmsThreshold) {
		if classIDs[idx] >= len(d.classes) {
			continue
		}
		labels = append(labels, media.Label{Class: d.classes[classIDs[idx]], Confidence: confidences[idx]})
	}
	return labels
}
