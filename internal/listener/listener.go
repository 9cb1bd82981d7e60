// Package listener подписывается на каналы PostgreSQL (LISTEN/NOTIFY)
// и раздаёт уведомления обработчику.
//
// Состояния: Disconnected → Connected → Listening. Любая ошибка возвращает
// в Disconnected, после паузы всё начинается заново: подключение, LISTEN
// на все каналы, ожидание. Число попыток не ограничено, остановить listener
// может только отмена контекста.
package listener

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/teamhub-bot/internal/metrics"
)

// State — состояние listener'а.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateListening
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	default:
		return "disconnected"
	}
}

// ErrAlreadyRunning — Run уже выполняется для этого listener'а.
var ErrAlreadyRunning = errors.New("listener уже запущен")

// Notification — одно уведомление NOTIFY.
type Notification struct {
	Channel string
	Payload string
}

// Conn — соединение для подписки.
type Conn interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (Notification, error)
	Close(ctx context.Context) error
}

// Dialer открывает новое соединение для подписки.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Handler обрабатывает уведомление. Каждый вызов — в своей горутине,
// порядок между вызовами не гарантирован.
type Handler func(ctx context.Context, channel, payload string) error

// Backoff — пауза между попытками подключения.
// Factor <= 1 — фиксированная пауза Initial.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// Next возвращает паузу после текущей.
func (b Backoff) Next(current time.Duration) time.Duration {
	if b.Factor <= 1 {
		return b.Initial
	}
	next := time.Duration(float64(current) * b.Factor)
	if b.Max > 0 && next > b.Max {
		next = b.Max
	}
	return next
}

// Значения по умолчанию.
const (
	defaultBackoff   = 5 * time.Second
	defaultHeartbeat = time.Second
	closeTimeout     = 5 * time.Second
)

// Option настраивает Listener.
type Option func(*Listener)

// WithBackoff задаёт политику пауз между переподключениями.
func WithBackoff(b Backoff) Option {
	return func(l *Listener) {
		if b.Initial > 0 {
			l.backoff = b
		}
	}
}

// WithHeartbeat задаёт период пробуждения цикла ожидания.
func WithHeartbeat(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.heartbeat = d
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Manager) Option {
	return func(l *Listener) {
		l.metrics = m
	}
}

// Listener — долгоживущая подписка на каналы.
type Listener struct {
	dialer    Dialer
	handler   Handler
	backoff   Backoff
	heartbeat time.Duration
	metrics   *metrics.Manager

	mu       sync.Mutex
	channels []string // множество: без повторов, в порядке добавления

	running  atomic.Bool
	state    atomic.Int32
	attempts atomic.Int64
	handlers sync.WaitGroup

	// ожидание паузы; в тестах подменяется
	sleep func(ctx context.Context, d time.Duration) error
	// вызывается при смене состояния; в тестах подменяется
	onState func(State)
}

// New создаёт listener. Пустой список каналов допустим: listener держит
// соединение и подпишется на каналы, добавленные позже через AddChannel.
func New(dialer Dialer, channels []string, handler Handler, opts ...Option) *Listener {
	l := &Listener{
		dialer:    dialer,
		handler:   handler,
		backoff:   Backoff{Initial: defaultBackoff, Max: defaultBackoff, Factor: 1},
		heartbeat: defaultHeartbeat,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, ch := range channels {
		l.AddChannel(ch)
	}
	return l
}

// AddChannel добавляет канал. На уже открытом соединении LISTEN
// выполнится на ближайшем пробуждении, без переподключения.
func (l *Listener) AddChannel(channel string) {
	if channel == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.channels {
		if ch == channel {
			return
		}
	}
	l.channels = append(l.channels, channel)
}

// Channels — текущий набор каналов.
func (l *Listener) Channels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.channels...)
}

// State — текущее состояние.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Attempts — сколько раз listener пытался подключиться.
func (l *Listener) Attempts() int64 {
	return l.attempts.Load()
}

// Run крутит цикл переподключений до отмены ctx. Возвращает nil при
// штатной остановке и ErrAlreadyRunning при повторном запуске.
func (l *Listener) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)
	defer l.setState(StateDisconnected)

	delay := l.backoff.Initial
	for {
		if ctx.Err() != nil {
			return nil
		}

		reachedListening, err := l.session(ctx)
		if ctx.Err() != nil {
			log.Info("DB listener остановлен")
			return nil
		}
		if reachedListening {
			delay = l.backoff.Initial
		}

		l.metrics.IncListenerConnectFailure()
		log.WithError(err).WithFields(log.Fields{
			"retry_in": delay.String(),
			"attempt":  l.attempts.Load(),
		}).Warn("DB listener: соединение потеряно, переподключаемся")

		if err := l.sleep(ctx, delay); err != nil {
			return nil
		}
		delay = l.backoff.Next(delay)
	}
}

// Wait ждёт завершения уже запущенных обработчиков.
func (l *Listener) Wait() {
	l.handlers.Wait()
}

// session — одна жизнь соединения: подключение, подписка, ожидание.
// Всегда возвращает ошибку; reachedListening — дошли ли до Listening.
func (l *Listener) session(ctx context.Context) (reachedListening bool, err error) {
	l.setState(StateDisconnected)
	l.attempts.Add(1)
	l.metrics.IncListenerConnectAttempt()

	conn, err := l.dialer.Dial(ctx)
	if err != nil {
		return false, fmt.Errorf("подключение: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := conn.Close(closeCtx); cerr != nil {
			log.WithError(cerr).Debug("DB listener: ошибка закрытия соединения")
		}
	}()
	l.setState(StateConnected)

	subscribed := make(map[string]struct{})
	if err := l.subscribe(ctx, conn, subscribed); err != nil {
		return false, err
	}
	l.setState(StateListening)
	log.WithField("channels", l.Channels()).Info("DB listener слушает каналы")

	for {
		waitCtx, cancel := context.WithTimeout(ctx, l.heartbeat)
		n, err := conn.WaitForNotification(waitCtx)
		timedOut := waitCtx.Err() != nil
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			if timedOut && errors.Is(err, context.DeadlineExceeded) {
				// heartbeat: заодно подписываемся на новые каналы
				if err := l.subscribe(ctx, conn, subscribed); err != nil {
					return true, err
				}
				continue
			}
			return true, fmt.Errorf("ожидание уведомления: %w", err)
		}

		l.dispatch(ctx, n)
	}
}

// subscribe выполняет LISTEN для каналов, на которые это соединение ещё не подписано.
func (l *Listener) subscribe(ctx context.Context, conn Conn, subscribed map[string]struct{}) error {
	for _, ch := range l.Channels() {
		if _, ok := subscribed[ch]; ok {
			continue
		}
		if err := conn.Listen(ctx, ch); err != nil {
			return fmt.Errorf("LISTEN %s: %w", ch, err)
		}
		subscribed[ch] = struct{}{}
		log.WithField("channel", ch).Debug("DB listener: подписка оформлена")
	}
	return nil
}

// dispatch запускает обработчик в отдельной горутине и не ждёт его.
// Ошибки и паники обработчика только логируются.
func (l *Listener) dispatch(ctx context.Context, n Notification) {
	l.metrics.IncListenerNotification(n.Channel)

	fields := log.Fields{"channel": n.Channel, "payload": n.Payload}
	log.WithFields(fields).Debug("DB listener: уведомление")

	l.handlers.Add(1)
	go func() {
		defer l.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				l.metrics.IncListenerHandlerFailure(n.Channel)
				log.WithFields(fields).WithFields(log.Fields{
					"panic": fmt.Sprintf("%v", r),
					"stack": string(debug.Stack()),
				}).Error("ПАНИКА в обработчике уведомления — восстановлено")
			}
		}()

		if err := l.handler(ctx, n.Channel, n.Payload); err != nil {
			l.metrics.IncListenerHandlerFailure(n.Channel)
			log.WithError(err).WithFields(fields).Error("Ошибка обработчика уведомления")
		}
	}()
}

func (l *Listener) setState(s State) {
	if State(l.state.Swap(int32(s))) == s {
		return
	}
	l.metrics.SetListenerState(int(s))
	if l.onState != nil {
		l.onState(s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
