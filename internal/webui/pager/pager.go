// Package pager реализует постраничный вывод списка треков.
package pager

import "github.com/Nothend/MusicLover/internal/model"

const (
	// PageSize количество треков на странице
	PageSize = 30

	// WindowSize максимум кнопок страниц в навигации
	WindowSize = 10
)

// View состояние постраничного вывода.
// Инвариант: 1 <= current <= max(1, TotalPages()).
type View struct {
	total   int
	current int
}

// New создает состояние для коллекции из total треков, открытое на первой странице
func New(total int) *View {
	if total < 0 {
		total = 0
	}
	return &View{total: total, current: 1}
}

// TotalPages возвращает количество страниц: ceil(total / PageSize)
func (v *View) TotalPages() int {
	return (v.total + PageSize - 1) / PageSize
}

// Current возвращает номер текущей страницы (с единицы)
func (v *View) Current() int {
	return v.current
}

// Total возвращает количество треков
func (v *View) Total() int {
	return v.total
}

// maxPage нижняя граница для current всегда 1, даже при пустой коллекции
func (v *View) maxPage() int {
	if pages := v.TotalPages(); pages > 1 {
		return pages
	}
	return 1
}

// SetPage переходит на страницу page с зажимом в допустимый диапазон
func (v *View) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if max := v.maxPage(); page > max {
		page = max
	}
	v.current = page
}

// Next переходит на следующую страницу
func (v *View) Next() {
	v.SetPage(v.current + 1)
}

// Prev переходит на предыдущую страницу
func (v *View) Prev() {
	v.SetPage(v.current - 1)
}

// HasPrev сообщает, доступна ли предыдущая страница
func (v *View) HasPrev() bool {
	return v.current > 1
}

// HasNext сообщает, доступна ли следующая страница
func (v *View) HasNext() bool {
	return v.current < v.TotalPages()
}

// Bounds возвращает полуинтервал [start, end) текущей страницы
func (v *View) Bounds() (start, end int) {
	start = (v.current - 1) * PageSize
	if start > v.total {
		start = v.total
	}
	end = start + PageSize
	if end > v.total {
		end = v.total
	}
	return start, end
}

// Slice возвращает треки текущей страницы
func (v *View) Slice(tracks []model.Track) []model.Track {
	start, end := v.Bounds()
	if start >= len(tracks) {
		return nil
	}
	if end > len(tracks) {
		end = len(tracks)
	}
	return tracks[start:end]
}

// Window возвращает номера страниц для кнопок навигации.
// Окно не шире WindowSize, текущая страница внутри окна,
// окно не выходит за первую и последнюю страницы.
func (v *View) Window() []int {
	pages := v.TotalPages()
	if pages == 0 {
		return nil
	}

	start := v.current - WindowSize/2
	if start < 1 {
		start = 1
	}

	end := start + WindowSize - 1
	if end > pages {
		end = pages
		start = end - WindowSize + 1
		if start < 1 {
			start = 1
		}
	}

	window := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		window = append(window, p)
	}
	return window
}
