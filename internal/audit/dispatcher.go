package audit

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event struct {
	AgentID  *uuid.UUID
	Action   string
	Entity   string
	EntityID *uuid.UUID
	Metadata any
}

type Writer interface {
	Write(ev Event) error
}

// Dispatcher writes audit events on a background goroutine so audit
// failures never break a request.
type Dispatcher struct {
	writer Writer
	log    *zap.Logger
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(writer Writer, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		log:    log,
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.writer.Write(ev); err != nil {
			d.log.Error("audit write failed", zap.String("action", ev.Action), zap.Error(err))
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close drains queued events and stops the worker. Dispatch must not be
// called after Close.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.queue)
	})
	<-d.done
}
