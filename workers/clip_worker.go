package workers

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/camden-git/clipcatalog/database"
	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/realtime"
)

// TaskType constants
const (
	TaskThumbnail = "thumbnail"
	TaskDetection = "detection"
)

var ErrQueueFull = errors.New("clip job queue is full")

// ThumbnailGenerator renders a clip's poster image
type ThumbnailGenerator interface {
	GenerateClipThumbnail(clipID uint) (string, error)
}

// DetectionRunner runs object detection over part of a clip
type DetectionRunner interface {
	RunDetection(clipID uint, rate, startOffset, endOffset float64) (*models.ObjectDetection, error)
}

type ClipJob struct {
	ClipID    uint
	TaskType  string
	Detection realtime.DetectionRequest
}

func (j ClipJob) pendingKey() string {
	return fmt.Sprintf("%d:%s", j.ClipID, j.TaskType)
}

// ClipProcessor runs thumbnail and detection jobs on a fixed pool of
// workers. Each task runs at most once per clip at a time; progress is
// published as task_status events.
type ClipProcessor struct {
	JobQueue   chan ClipJob
	Thumbnails ThumbnailGenerator
	Detections DetectionRunner
	Events     realtime.Publisher
	Wg         sync.WaitGroup
	StopChan   chan struct{}
	Pending    map[string]bool
	Mutex      sync.Mutex
}

func NewClipProcessor(thumbnails ThumbnailGenerator, detections DetectionRunner, events realtime.Publisher, queueSize, numWorkers int) *ClipProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if events == nil {
		events = realtime.Discard{}
	}
	proc := &ClipProcessor{
		JobQueue:   make(chan ClipJob, queueSize),
		Thumbnails: thumbnails,
		Detections: detections,
		Events:     events,
		StopChan:   make(chan struct{}),
		Pending:    make(map[string]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d clip processing worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

func (cp *ClipProcessor) worker(id int) {
	defer cp.Wg.Done()

	log.Printf("Clip worker %d started", id)
	for {
		select {
		case job, ok := <-cp.JobQueue:
			if !ok {
				log.Printf("Clip worker %d stopping: Job queue closed", id)
				return
			}
			log.Printf("Worker %d: Received job type '%s' for clip %d", id, job.TaskType, job.ClipID)
			cp.Events.Publish(realtime.TaskEvent(job.ClipID, job.TaskType, database.StatusProcessing, nil))

			var err error
			switch job.TaskType {
			case TaskThumbnail:
				err = cp.processThumbnailTask(job)
			case TaskDetection:
				err = cp.processDetectionTask(job)
			default:
				err = fmt.Errorf("unknown task type '%s'", job.TaskType)
			}

			status := database.StatusDone
			if err != nil {
				status = database.StatusError
				log.Printf("Worker %d: ERROR %s task for clip %d: %v", id, job.TaskType, job.ClipID, err)
			}

			cp.Mutex.Lock()
			delete(cp.Pending, job.pendingKey())
			cp.Mutex.Unlock()
			cp.Events.Publish(realtime.TaskEvent(job.ClipID, job.TaskType, status, err))

		case <-cp.StopChan:
			log.Printf("Clip worker %d stopping: Stop signal received", id)
			return
		}
	}
}

func (cp *ClipProcessor) processThumbnailTask(job ClipJob) error {
	if cp.Thumbnails == nil {
		return fmt.Errorf("thumbnail generation is not configured")
	}
	path, err := cp.Thumbnails.GenerateClipThumbnail(job.ClipID)
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}
	log.Printf("Worker: Generated thumbnail %s for clip %d", path, job.ClipID)
	return nil
}

func (cp *ClipProcessor) processDetectionTask(job ClipJob) error {
	if cp.Detections == nil {
		return fmt.Errorf("object detection is not configured")
	}
	req := job.Detection
	run, err := cp.Detections.RunDetection(job.ClipID, req.SampleRate, req.StartOffset, req.EndOffset)
	if err != nil {
		return err
	}
	log.Printf("Worker: Detection run %d complete for clip %d", run.ID, job.ClipID)
	return nil
}

// QueueJob queues a task unless the same task is already pending for the clip
func (cp *ClipProcessor) QueueJob(job ClipJob) bool {
	key := job.pendingKey()

	cp.Mutex.Lock()
	if cp.Pending[key] {
		cp.Mutex.Unlock()
		return false
	}
	cp.Pending[key] = true
	cp.Mutex.Unlock()

	cp.Events.Publish(realtime.TaskEvent(job.ClipID, job.TaskType, database.StatusPending, nil))
	select {
	case cp.JobQueue <- job:
		log.Printf("Queued task '%s' for clip %d", job.TaskType, job.ClipID)
		return true
	default:
		log.Printf("WARNING: Clip job queue full. Failed to queue task '%s' for clip %d", job.TaskType, job.ClipID)
		cp.Mutex.Lock()
		delete(cp.Pending, key)
		cp.Mutex.Unlock()
		cp.Events.Publish(realtime.TaskEvent(job.ClipID, job.TaskType, database.StatusError, ErrQueueFull))
		return false
	}
}

func (cp *ClipProcessor) QueueThumbnail(clipID uint) bool {
	return cp.QueueJob(ClipJob{ClipID: clipID, TaskType: TaskThumbnail})
}

func (cp *ClipProcessor) QueueDetection(req realtime.DetectionRequest) bool {
	return cp.QueueJob(ClipJob{ClipID: req.ClipID, TaskType: TaskDetection, Detection: req})
}

// HandleDetectionRequest adapts QueueDetection to the broker's consumer callback
func (cp *ClipProcessor) HandleDetectionRequest(req realtime.DetectionRequest) error {
	if !cp.QueueDetection(req) {
		return fmt.Errorf("detection for clip %d already pending or queue full", req.ClipID)
	}
	return nil
}

func (cp *ClipProcessor) Stop() {
	log.Println("Stopping clip processor workers...")
	close(cp.StopChan)
	cp.Wg.Wait()
	log.Println("All clip processor workers stopped")
}
