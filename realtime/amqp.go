package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// DetectionRequest asks for a detection run on a clip. Offsets are seconds
// from the clip start; a zero EndOffset means the end of the clip.
type DetectionRequest struct {
	ClipID      uint    `json:"clip_id"`
	SampleRate  float64 `json:"sample_rate"`
	StartOffset float64 `json:"start_offset"`
	EndOffset   float64 `json:"end_offset"`
}

var ErrInvalidRequest = errors.New("invalid detection request")

// ParseDetectionRequest decodes and checks a request body from the queue
func ParseDetectionRequest(body []byte) (DetectionRequest, error) {
	var req DetectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, req.Validate()
}

func (r DetectionRequest) Validate() error {
	if r.ClipID == 0 {
		return fmt.Errorf("%w: missing clip_id", ErrInvalidRequest)
	}
	if r.SampleRate < 0 || r.StartOffset < 0 || r.EndOffset < 0 {
		return fmt.Errorf("%w: negative rate or offset", ErrInvalidRequest)
	}
	if r.EndOffset != 0 && r.EndOffset < r.StartOffset {
		return fmt.Errorf("%w: end_offset before start_offset", ErrInvalidRequest)
	}
	return nil
}

// AMQPBroker publishes events to a fanout exchange and consumes detection
// requests from a durable queue
type AMQPBroker struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	requests   <-chan amqp.Delivery
	mu         sync.Mutex // amqp channels are not safe for concurrent publishing
}

// NewAMQPBroker connects to url, declares the exchange and request queue, and
// starts consuming requests with manual acknowledgement
func NewAMQPBroker(url, exchange, requestQueue string) (*AMQPBroker, error) {
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	queue, err := channel.QueueDeclare(
		requestQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", requestQueue, err)
	}

	requests, err := channel.Consume(
		queue.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to consume queue %s: %w", requestQueue, err)
	}

	return &AMQPBroker{
		connection: connection,
		channel:    channel,
		exchange:   exchange,
		requests:   requests,
	}, nil
}

// Publish sends the event to the exchange, routed by its type
func (b *AMQPBroker) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal event for broker: %v", err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.channel.Publish(
		b.exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Unix(event.Timestamp, 0),
			Body:        body,
		})
	if err != nil {
		log.Printf("realtime: failed to publish %s event: %v", event.Type, err)
	}
}

// ConsumeDetectionRequests hands every queued request to handle until the
// delivery channel closes. Malformed requests are dropped; requests whose
// handler fails are requeued once.
func (b *AMQPBroker) ConsumeDetectionRequests(handle func(DetectionRequest) error) {
	for d := range b.requests {
		req, err := ParseDetectionRequest(d.Body)
		if err != nil {
			log.Printf("realtime: dropping request: %v", err)
			d.Nack(false, false)
			continue
		}
		if err := handle(req); err != nil {
			log.Printf("realtime: detection request for clip %d failed: %v", req.ClipID, err)
			d.Nack(false, !d.Redelivered)
			continue
		}
		d.Ack(false)
	}
	log.Println("realtime: request queue closed")
}

func (b *AMQPBroker) Close() error {
	return b.connection.Close()
}
