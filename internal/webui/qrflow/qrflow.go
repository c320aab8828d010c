// Package qrflow реализует конечный автомат входа по QR-коду.
//
// Автомат детерминирован: все переходы управляются явным временем
// через Tick, реальные таймеры остаются снаружи.
package qrflow

import (
	"fmt"
	"time"
)

// State состояние автомата входа
type State int

const (
	// StateIdle вход не начат
	StateIdle State = iota

	// StateGenerated код получен, опрос еще не начался
	StateGenerated

	// StatePolling идет опрос статуса
	StatePolling

	// StateConfirmed вход подтвержден
	StateConfirmed

	// StateExpired код истек
	StateExpired

	// StateError опрос завершился ошибкой
	StateError
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerated:
		return "generated"
	case StatePolling:
		return "polling"
	case StateConfirmed:
		return "confirmed"
	case StateExpired:
		return "expired"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	// Lifetime время жизни кода
	Lifetime = 180 * time.Second

	// PollInterval интервал между опросами
	PollInterval = 3 * time.Second

	// MaxPolls максимум опросов за одну сессию
	MaxPolls = 60
)

// Коды статуса опроса
const (
	CodeExpired   = 800
	CodeWaiting   = 801
	CodeScanned   = 802
	CodeConfirmed = 803
)

// Machine конечный автомат одной сессии входа.
// Эпоха различает сессии: доставка результата устаревшего опроса
// или тика не меняет состояние.
type Machine struct {
	state State
	epoch uint64

	key   string
	image string

	deadline time.Time
	nextPoll time.Time
	polls    int

	cookie  string
	isVIP   bool
	message string
}

// NewMachine создает автомат в состоянии Idle
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State возвращает текущее состояние
func (m *Machine) State() State {
	return m.state
}

// Epoch возвращает текущую эпоху сессии
func (m *Machine) Epoch() uint64 {
	return m.epoch
}

// Key возвращает ключ текущей сессии
func (m *Machine) Key() string {
	return m.key
}

// Image возвращает изображение кода (data URI)
func (m *Machine) Image() string {
	return m.image
}

// Cookie возвращает полученный при подтверждении cookie
func (m *Machine) Cookie() string {
	return m.cookie
}

// IsVIP возвращает признак VIP подтвержденной сессии
func (m *Machine) IsVIP() bool {
	return m.isVIP
}

// Message возвращает последнее статусное сообщение
func (m *Machine) Message() string {
	return m.message
}

// Resolved сообщает, достиг ли автомат терминального состояния
func (m *Machine) Resolved() bool {
	return m.state == StateConfirmed || m.state == StateExpired || m.state == StateError
}

// Begin начинает новую сессию с полученным кодом.
// Предыдущая сессия обесценивается: ее тики и опросы игнорируются.
func (m *Machine) Begin(key, image string, now time.Time) {
	m.epoch++
	m.state = StateGenerated
	m.key = key
	m.image = image
	m.deadline = now.Add(Lifetime)
	m.nextPoll = now.Add(PollInterval)
	m.polls = 0
	m.cookie = ""
	m.isVIP = false
	m.message = ""
}

// BeginFailed фиксирует неудачную генерацию кода: автомат остается в Idle
func (m *Machine) BeginFailed(message string) {
	m.epoch++
	m.state = StateIdle
	m.key = ""
	m.image = ""
	m.message = message
}

// Reset вручную сбрасывает сессию в Idle и гасит все таймеры
func (m *Machine) Reset() {
	m.epoch++
	m.state = StateIdle
	m.key = ""
	m.image = ""
	m.cookie = ""
	m.isVIP = false
	m.message = ""
	m.polls = 0
}

// Tick продвигает автомат к моменту now.
// Возвращает true когда пора выполнить очередной опрос статуса;
// после разрешения сессии всегда возвращает false и ничего не меняет.
func (m *Machine) Tick(now time.Time) bool {
	if m.state != StateGenerated && m.state != StatePolling {
		return false
	}

	// Обратный отсчет побеждает любой исход опроса
	if !now.Before(m.deadline) {
		m.state = StateExpired
		m.message = "二维码已过期"
		return false
	}

	if now.Before(m.nextPoll) {
		return false
	}

	if m.polls >= MaxPolls {
		m.state = StateExpired
		m.message = "二维码已过期"
		return false
	}

	m.polls++
	m.nextPoll = now.Add(PollInterval)
	m.state = StatePolling
	return true
}

// ApplyPoll доставляет результат опроса эпохи epoch.
// Результаты устаревших эпох и опросов после разрешения игнорируются.
func (m *Machine) ApplyPoll(epoch uint64, code int, cookie string, isVIP bool, message string) {
	if epoch != m.epoch {
		return
	}
	if m.state != StateGenerated && m.state != StatePolling {
		return
	}

	m.message = message

	switch code {
	case CodeConfirmed:
		m.state = StateConfirmed
		m.cookie = cookie
		m.isVIP = isVIP
	case CodeExpired:
		m.state = StateExpired
	case CodeWaiting, CodeScanned:
		// Остаемся в опросе
	}
}

// ApplyPollError доставляет транспортную ошибку опроса эпохи epoch
func (m *Machine) ApplyPollError(epoch uint64, message string) {
	if epoch != m.epoch {
		return
	}
	if m.state != StateGenerated && m.state != StatePolling {
		return
	}

	m.state = StateError
	m.message = message
}

// Remaining возвращает остаток времени жизни кода
func (m *Machine) Remaining(now time.Time) time.Duration {
	if m.state != StateGenerated && m.state != StatePolling {
		return 0
	}
	remaining := m.deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CountdownDisplay возвращает остаток времени в формате минуты:секунды
func (m *Machine) CountdownDisplay(now time.Time) string {
	remaining := int(m.Remaining(now).Seconds())
	return fmt.Sprintf("%d:%02d", remaining/60, remaining%60)
}
