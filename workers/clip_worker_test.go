package workers

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
)

type eventLog struct {
	mu     sync.Mutex
	events []realtime.Event
	done   chan realtime.Event
}

func newEventLog() *eventLog {
	return &eventLog{done: make(chan realtime.Event, 16)}
}

func (l *eventLog) Publish(e realtime.Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
	if e.Status == database.StatusDone || e.Status == database.StatusError {
		l.done <- e
	}
}

func (l *eventLog) wait(t *testing.T) realtime.Event {
	t.Helper()
	select {
	case e := <-l.done:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a finished task")
	}
	return realtime.Event{}
}

type blockingThumbnails struct {
	release chan struct{}
	calls   chan uint
}

func (b *blockingThumbnails) GenerateClipThumbnail(clipID uint) (string, error) {
	b.calls <- clipID
	<-b.release
	return "thumbnails/x.jpg", nil
}

type recordingDetections struct {
	mu   sync.Mutex
	reqs []realtime.DetectionRequest
	err  error
}

func (r *recordingDetections) RunDetection(clipID uint, rate, start, end float64) (*models.ObjectDetection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, realtime.DetectionRequest{ClipID: clipID, SampleRate: rate, StartOffset: start, EndOffset: end})
	if r.err != nil {
		return nil, r.err
	}
	return &models.ObjectDetection{ID: 1, ClipID: clipID}, nil
}

func TestQueueThumbnailDeduplicates(t *testing.T) {
	thumbs := &blockingThumbnails{release: make(chan struct{}), calls: make(chan uint, 4)}
	events := newEventLog()
	proc := NewClipProcessor(thumbs, nil, events, 4, 1)
	defer proc.Stop()

	if !proc.QueueThumbnail(3) {
		t.Fatal("first job rejected")
	}
	<-thumbs.calls
	if proc.QueueThumbnail(3) {
		t.Error("duplicate job accepted while pending")
	}
	if !proc.QueueDetection(realtime.DetectionRequest{ClipID: 3}) {
		t.Error("different task for the same clip rejected")
	}

	close(thumbs.release)
	if e := events.wait(t); e.Task != TaskThumbnail || e.Status != database.StatusDone {
		t.Errorf("first finished event = %+v", e)
	}
	// detection is unconfigured
	if e := events.wait(t); e.Task != TaskDetection || e.Status != database.StatusError || e.Error == "" {
		t.Errorf("second finished event = %+v", e)
	}

	if !proc.QueueThumbnail(3) {
		t.Error("job rejected after the previous one finished")
	}
	<-thumbs.calls
	events.wait(t)
}

func TestDetectionJobsPublishStatus(t *testing.T) {
	detections := &recordingDetections{}
	events := newEventLog()
	proc := NewClipProcessor(nil, detections, events, 4, 2)
	defer proc.Stop()

	req := realtime.DetectionRequest{ClipID: 9, SampleRate: 2, StartOffset: 5, EndOffset: 50}
	if err := proc.HandleDetectionRequest(req); err != nil {
		t.Fatal(err)
	}
	e := events.wait(t)
	if e.Status != database.StatusDone || e.ClipID == nil || *e.ClipID != 9 {
		t.Errorf("finished event = %+v", e)
	}
	detections.mu.Lock()
	if len(detections.reqs) != 1 || detections.reqs[0] != req {
		t.Errorf("runner got %+v", detections.reqs)
	}
	detections.mu.Unlock()

	events.mu.Lock()
	statuses := make([]string, 0, len(events.events))
	for _, ev := range events.events {
		statuses = append(statuses, ev.Status)
	}
	events.mu.Unlock()
	want := []string{database.StatusPending, database.StatusProcessing, database.StatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses = %v, want %v", statuses, want)
			break
		}
	}

	detections.mu.Lock()
	detections.err = errors.New("decoder failed")
	detections.mu.Unlock()
	proc.QueueDetection(req)
	if e := events.wait(t); e.Status != database.StatusError || e.Error == "" {
		t.Errorf("failed run event = %+v", e)
	}
}

func TestQueueFull(t *testing.T) {
	proc := &ClipProcessor{
		JobQueue: make(chan ClipJob, 1),
		Events:   realtime.Discard{},
		Pending:  make(map[string]bool),
	}
	if !proc.QueueThumbnail(1) {
		t.Fatal("first job rejected")
	}
	if proc.QueueThumbnail(2) {
		t.Error("job accepted into a full queue")
	}
	if proc.Pending["2:thumbnail"] {
		t.Error("rejected job left pending")
	}
}
