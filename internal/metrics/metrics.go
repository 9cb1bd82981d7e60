// Package metrics собирает Prometheus-метрики бота: поиск водителей,
// пересчёт рейтинга и работа DB listener'а.
//
// Все методы Manager безопасны для nil-получателя: сервисы можно
// собирать без метрик (в тестах так и делается).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option настраивает Manager.
type Option func(*Manager)

// WithNamespace задаёт namespace всех метрик.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry задаёт реестр, в котором регистрируются метрики.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager держит все метрики приложения.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	discoveryRequests *prometheus.CounterVec
	geocodeFailures   prometheus.Counter

	scoringRecomputed prometheus.Counter
	scoringRejected   prometheus.Counter

	listenerConnectAttempts prometheus.Counter
	listenerConnectFailures prometheus.Counter
	listenerNotifications   *prometheus.CounterVec
	listenerHandlerFailures *prometheus.CounterVec
	listenerState           prometheus.Gauge
}

// NewManager создаёт менеджер метрик. По умолчанию — собственный реестр,
// без стандартных go_* метрик.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "teamhub",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.discoveryRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "discovery",
		Name:      "requests_total",
		Help:      "Поиск водителей по режиму (proximity/text) и исходу",
	}, []string{"mode", "outcome"})

	m.geocodeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "discovery",
		Name:      "geocode_unresolved_total",
		Help:      "Запросы, которые геокодер не смог разрешить (включая таймауты)",
	})

	m.scoringRecomputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rating",
		Name:      "recomputed_total",
		Help:      "Успешные пересчёты рейтинга",
	})

	m.scoringRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rating",
		Name:      "rejected_total",
		Help:      "Пересчёты, отклонённые из-за некорректной истории",
	})

	m.listenerConnectAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "listener",
		Name:      "connect_attempts_total",
		Help:      "Попытки подключения listener'а",
	})

	m.listenerConnectFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "listener",
		Name:      "connect_failures_total",
		Help:      "Обрывы и неудачные подключения listener'а",
	})

	m.listenerNotifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "listener",
		Name:      "notifications_total",
		Help:      "Полученные уведомления по каналам",
	}, []string{"channel"})

	m.listenerHandlerFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "listener",
		Name:      "handler_failures_total",
		Help:      "Ошибки обработчиков уведомлений по каналам",
	}, []string{"channel"})

	m.listenerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "listener",
		Name:      "state",
		Help:      "0 — disconnected, 1 — connected, 2 — listening",
	})
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry — для тестов и внешней регистрации.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) ObserveDiscovery(mode, outcome string) {
	if m == nil {
		return
	}
	m.discoveryRequests.WithLabelValues(mode, outcome).Inc()
}

func (m *Manager) IncGeocodeUnresolved() {
	if m == nil {
		return
	}
	m.geocodeFailures.Inc()
}

func (m *Manager) IncScoringRecomputed() {
	if m == nil {
		return
	}
	m.scoringRecomputed.Inc()
}

func (m *Manager) IncScoringRejected() {
	if m == nil {
		return
	}
	m.scoringRejected.Inc()
}

func (m *Manager) IncListenerConnectAttempt() {
	if m == nil {
		return
	}
	m.listenerConnectAttempts.Inc()
}

func (m *Manager) IncListenerConnectFailure() {
	if m == nil {
		return
	}
	m.listenerConnectFailures.Inc()
}

func (m *Manager) IncListenerNotification(channel string) {
	if m == nil {
		return
	}
	m.listenerNotifications.WithLabelValues(channel).Inc()
}

func (m *Manager) IncListenerHandlerFailure(channel string) {
	if m == nil {
		return
	}
	m.listenerHandlerFailures.WithLabelValues(channel).Inc()
}

func (m *Manager) SetListenerState(state int) {
	if m == nil {
		return
	}
	m.listenerState.Set(float64(state))
}
