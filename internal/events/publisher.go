package events

import (
	"encoding/json"
	"sync"

	"did-backend/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Sink receives every published event in-process. The websocket push
// service registers itself as a sink.
type Sink interface {
	OnEvent(eventType string, payload []byte)
}

// Publisher fans registry events out to NATS, in-process sinks, and the
// log. A nil *Publisher is safe to publish on, so services never need to
// care whether eventing is configured.
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
	log           *logrus.Logger

	mu    sync.RWMutex
	sinks []Sink
}

// NewPublisher creates an event publisher. nc may be nil when NATS is
// disabled; events still reach sinks and the log.
func NewPublisher(nc *nats.Conn, subjectPrefix string, log *logrus.Logger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		nc:            nc,
		subjectPrefix: subjectPrefix,
		log:           log,
	}
}

// AddSink registers an in-process event consumer.
func (p *Publisher) AddSink(sink Sink) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.sinks = append(p.sinks, sink)
	p.mu.Unlock()
}

// Publish serializes and delivers one event. Delivery failures are logged,
// not returned: events describe state that is already durably committed,
// so the triggering operation must not fail because an observer is down.
func (p *Publisher) Publish(event Event) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).WithField("event_type", event.EventType()).Error("Failed to marshal registry event")
		return
	}

	p.log.WithFields(logrus.Fields{
		"event_type": event.EventType(),
		"payload":    string(payload),
	}).Info("📣 Registry event")

	metrics.EventsPublished.WithLabelValues(event.EventType()).Inc()

	if p.nc != nil {
		subject := p.subjectPrefix + "." + event.EventType()
		if err := p.nc.Publish(subject, payload); err != nil {
			p.log.WithError(err).WithField("subject", subject).Warn("Failed to publish event to NATS")
			metrics.EventsPublishFailed.WithLabelValues(event.EventType()).Inc()
		}
	}

	p.mu.RLock()
	sinks := p.sinks
	p.mu.RUnlock()
	for _, sink := range sinks {
		sink.OnEvent(event.EventType(), payload)
	}
}
