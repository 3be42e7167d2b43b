package service

import (
	"garage_door/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the monitor's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	ticks               prometheus.Counter
	doorOpen            prometheus.Gauge
	transitions         *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	commands            *prometheus.CounterVec
	sensorFailures      prometheus.Counter
	persistenceFailures prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garage_door_ticks_total",
			Help: "Monitor loop iterations.",
		}),
		doorOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_door_open",
			Help: "1 while the door contact reads open.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_door_transitions_total",
			Help: "Door state changes by new state.",
		}, []string{"state"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_door_notifications_total",
			Help: "Notifications handed to the notifier by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_door_commands_total",
			Help: "Commands executed by the monitor loop.",
		}, []string{"command"}),
		sensorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garage_door_sensor_read_failures_total",
			Help: "Failed door contact reads.",
		}),
		persistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garage_door_persistence_failures_total",
			Help: "Settings or target writes that did not reach the store.",
		}),
	}
	reg.MustRegister(m.ticks, m.doorOpen, m.transitions, m.notifications,
		m.commands, m.sensorFailures, m.persistenceFailures)
	return m
}

func (m *Metrics) tick(state models.DoorState) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	if state == models.DoorOpen {
		m.doorOpen.Set(1)
	} else {
		m.doorOpen.Set(0)
	}
}

func (m *Metrics) transition(to models.DoorState) {
	if m != nil {
		m.transitions.WithLabelValues(string(to)).Inc()
	}
}

func (m *Metrics) notification(kind models.NotificationKind) {
	if m != nil {
		m.notifications.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) command(kind models.CommandKind) {
	if m != nil {
		m.commands.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) sensorFailure() {
	if m != nil {
		m.sensorFailures.Inc()
	}
}

func (m *Metrics) persistenceFailure() {
	if m != nil {
		m.persistenceFailures.Inc()
	}
}
