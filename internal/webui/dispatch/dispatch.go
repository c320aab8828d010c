// Package dispatch реализует разбор пользовательского ввода и доставку
// результатов разбора с защитой от устаревших ответов.
package dispatch

import (
	"regexp"
	"strings"
	"sync"
)

// Mode режим разбора ввода
type Mode string

const (
	ModeSong     Mode = "song"
	ModePlaylist Mode = "playlist"
	ModeAlbum    Mode = "album"
)

var (
	songPattern     = regexp.MustCompile(`song\?id=(\d+)|song/(\d+)`)
	playlistPattern = regexp.MustCompile(`playlist\?id=(\d+)`)
	albumPattern    = regexp.MustCompile(`album\?id=(\d+)`)
	trailingDigits  = regexp.MustCompile(`/(\d+)(?:[?#].*)?$`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
)

// ExtractID извлекает числовой идентификатор из ввода для режима mode.
// Возвращает пустую строку когда идентификатор не распознан:
// вызывающий обязан отклонить ввод без сетевого вызова.
func ExtractID(input string, mode Mode) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	// Фрагмент клиентского роутера не влияет на разбор
	normalized := strings.ReplaceAll(input, "/#/", "/")

	var pattern *regexp.Regexp
	switch mode {
	case ModeSong:
		pattern = songPattern
	case ModePlaylist:
		pattern = playlistPattern
	case ModeAlbum:
		pattern = albumPattern
	default:
		return ""
	}

	if match := pattern.FindStringSubmatch(normalized); match != nil {
		for _, group := range match[1:] {
			if group != "" {
				return group
			}
		}
	}

	// Для песен допускается числовой завершающий сегмент пути
	if mode == ModeSong && strings.Contains(normalized, "/") {
		if match := trailingDigits.FindStringSubmatch(normalized); match != nil {
			return match[1]
		}
	}

	if digitsOnly.MatchString(input) {
		return input
	}

	return ""
}

// Tokens выдает монотонные токены запросов: последний выданный побеждает.
// Ответ с устаревшим токеном не доставляется.
type Tokens struct {
	mu      sync.Mutex
	current uint64
}

// NewTokens создает источник токенов
func NewTokens() *Tokens {
	return &Tokens{}
}

// Next выдает новый токен, обесценивая все предыдущие
func (t *Tokens) Next() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	return t.current
}

// IsCurrent сообщает, остается ли токен последним выданным
func (t *Tokens) IsCurrent(token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return token == t.current
}

// Deliver выполняет apply только если токен не устарел.
// Возвращает true когда результат был доставлен.
func (t *Tokens) Deliver(token uint64, apply func()) bool {
	t.mu.Lock()
	if token != t.current {
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()

	apply()
	return true
}
