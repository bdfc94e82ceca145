package serial

import (
	"container/heap"
	"sync"
	"time"

	"machinectl/errcode"

	"github.com/rs/zerolog"
)

// Request is one Modbus exchange queued against a device's worker.
// Higher Priority values are serviced first, the serial registry's
// per-device priority queue. Grounded on
// services/hal/internal/worker/measure_worker.go's trigger/collect loop,
// generalized from I2C measurement cycles to Modbus register exchanges.
type Request struct {
	Priority int
	Func     FunctionCode
	Address  uint16
	Quantity uint16
	Value    uint16
	Reply    chan Reply

	index int // heap bookkeeping
}

// Reply is one completed (or failed) exchange result.
type Reply struct {
	Data []byte
	Err  error
}

type requestHeap []*Request

func (h requestHeap) Len() int            { return len(h) }
func (h requestHeap) Less(i, j int) bool  { return h[i].Priority > h[j].Priority }
func (h requestHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *requestHeap) Push(x any)         { r := x.(*Request); r.index = len(*h); *h = append(*h, r) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	r.index = -1
	*h = old[:n-1]
	return r
}

// PanicReport is posted to the supervisor channel when a worker's
// goroutine recovers from a panic, naming the faulted device.
type PanicReport struct {
	DeviceID string
	Reason   any
}

// Worker owns one serial device's connection and serializes every
// Modbus exchange against it from a single goroutine. After
// defaultMaxConsecutiveFailures failed exchanges in a row, the device
// enters Faulted and stops accepting requests until Reset is called.
type Worker struct {
	deviceID   string
	client     Client
	closeFn    func() error
	maxRetries int
	retryWait  time.Duration

	log zerolog.Logger

	mu         sync.Mutex
	queue      requestHeap
	wake       chan struct{}
	faulted    bool
	consecFail int

	supervisor chan<- PanicReport
}

const defaultMaxConsecutiveFailures = 5

func NewWorker(deviceID string, client Client, closeFn func() error, log zerolog.Logger, supervisor chan<- PanicReport) *Worker {
	w := &Worker{
		deviceID:   deviceID,
		client:     client,
		closeFn:    closeFn,
		maxRetries: defaultMaxConsecutiveFailures,
		retryWait:  15 * time.Millisecond,
		log:        log,
		wake:       make(chan struct{}, 1),
		supervisor: supervisor,
	}
	heap.Init(&w.queue)
	return w
}

// Submit enqueues req, waking the worker goroutine. Returns false if the
// device is Faulted and the request was rejected outright.
func (w *Worker) Submit(req *Request) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.faulted {
		return false
	}
	heap.Push(&w.queue, req)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Faulted reports whether the device has exceeded its consecutive
// failure threshold.
func (w *Worker) Faulted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.faulted
}

// Reset clears the Faulted state after a successful reconnect.
func (w *Worker) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.faulted = false
	w.consecFail = 0
}

// Run drives the worker loop until stop is closed. It recovers from any
// panic in the exchange path, reporting it to the supervisor channel
// with the device's identifier and removing the device from service.
func (w *Worker) Run(stop <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			w.mu.Lock()
			w.faulted = true
			w.mu.Unlock()
			if w.supervisor != nil {
				w.supervisor <- PanicReport{DeviceID: w.deviceID, Reason: r}
			}
		}
	}()
	for {
		select {
		case <-stop:
			if w.closeFn != nil {
				_ = w.closeFn()
			}
			return
		case <-w.wake:
			w.drainQueue()
		}
	}
}

func (w *Worker) drainQueue() {
	for {
		req := w.popHighestPriority()
		if req == nil {
			return
		}
		w.exchange(req)
	}
}

func (w *Worker) popHighestPriority() *Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.faulted || w.queue.Len() == 0 {
		return nil
	}
	return heap.Pop(&w.queue).(*Request)
}

func (w *Worker) exchange(req *Request) {
	var data []byte
	var err error
	switch req.Func {
	case FuncReadHoldingRegisters:
		data, err = w.client.ReadHoldingRegisters(req.Address, req.Quantity)
	case FuncReadInputRegisters:
		data, err = w.client.ReadInputRegisters(req.Address, req.Quantity)
	case FuncWriteSingleRegister:
		data, err = w.client.WriteSingleRegister(req.Address, req.Value)
	default:
		err = errcode.InvalidParams
	}

	w.mu.Lock()
	if err != nil {
		w.consecFail++
		if w.consecFail >= w.maxRetries {
			w.faulted = true
			w.log.Error().Str("device", w.deviceID).Int("consecutive_failures", w.consecFail).Msg("serial device faulted")
		}
	} else {
		w.consecFail = 0
	}
	w.mu.Unlock()

	if req.Reply != nil {
		req.Reply <- Reply{Data: data, Err: mapExchangeErr(err)}
	}
}

func mapExchangeErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(errcode.Code); ok {
		return errcode.Of(err)
	}
	return errcode.Crc
}
