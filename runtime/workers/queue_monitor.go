package workers

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/shirou/gopsutil/process"
)

const (
	DefaultQueueMetricInterval = 30 * time.Second
	queueWarnRatio             = 0.8
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ReceiverCounter is satisfied by the output bus.
type ReceiverCounter interface {
	ReceiverCount() int
	Capacity() int
}

type QueueUsage struct {
	Name     string
	Length   int
	Capacity int
}

// Ratio is the share of the queue in use, zero for unbuffered channels.
func (q QueueUsage) Ratio() float64 {
	if q.Capacity == 0 {
		return 0
	}
	return float64(q.Length) / float64(q.Capacity)
}

// ProcessUsage is the resource usage of the server process.
type ProcessUsage struct {
	CPUPercent    float64
	MemoryPercent float32
}

// QueueMonitorWorker periodically logs how full the command queues are,
// along with the cpu and memory used by the server process.
// Reading len and cap of a channel never blocks, so sampling does not
// interfere with the registries.
type QueueMonitorWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	bus            ReceiverCounter
	metricInterval time.Duration
	self           *process.Process
}

func NewQueueMonitorWorker(log *slog.Logger, channels []NamedChannel, bus ReceiverCounter,
	metricInterval time.Duration) *QueueMonitorWorker {
	if metricInterval <= 0 {
		metricInterval = DefaultQueueMetricInterval
	}
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Process usage unavailable", "err", err)
	}
	return &QueueMonitorWorker{
		log:            log,
		channels:       channels,
		bus:            bus,
		metricInterval: metricInterval,
		self:           self,
	}
}

func (w QueueMonitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping queue monitor")
			return nil
		case <-ticker.C:
			w.Report()
		}
	}
}

// Report logs one sample per queue and returns the samples.
func (w QueueMonitorWorker) Report() []QueueUsage {
	usages := make([]QueueUsage, 0, len(w.channels))
	for _, nc := range w.channels {
		usage, ok := Sample(nc)
		if !ok {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		usages = append(usages, usage)
		if usage.Ratio() >= queueWarnRatio {
			w.log.Warn("Queue almost full", "name", usage.Name, "length", usage.Length, "capacity", usage.Capacity)
		} else {
			w.log.Debug("Queue usage", "name", usage.Name, "length", usage.Length, "capacity", usage.Capacity)
		}
	}
	if w.bus != nil {
		w.log.Debug("Output bus", "receivers", w.bus.ReceiverCount(), "capacity", w.bus.Capacity())
	}
	if usage, ok := w.ProcessUsage(); ok {
		w.log.Debug("Process usage", "cpu", usage.CPUPercent, "ram", usage.MemoryPercent)
	}
	return usages
}

// ProcessUsage samples the server process. It reports false when the
// platform does not expose the figures.
func (w QueueMonitorWorker) ProcessUsage() (ProcessUsage, bool) {
	if w.self == nil {
		return ProcessUsage{}, false
	}
	cpu, err := w.self.CPUPercent()
	if err != nil {
		w.log.Debug("Error while finding process cpu usage", "err", err)
		return ProcessUsage{}, false
	}
	ram, err := w.self.MemoryPercent()
	if err != nil {
		w.log.Debug("Error while finding process ram usage", "err", err)
		return ProcessUsage{}, false
	}
	return ProcessUsage{CPUPercent: cpu, MemoryPercent: ram}, true
}

// Sample reads the length and capacity of a channel.
func Sample(nc NamedChannel) (QueueUsage, bool) {
	v := reflect.ValueOf(nc.Channel)
	if v.Kind() != reflect.Chan {
		return QueueUsage{}, false
	}
	return QueueUsage{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()}, true
}
