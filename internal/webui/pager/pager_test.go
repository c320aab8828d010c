package pager

import (
	"fmt"
	"testing"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/stretchr/testify/assert"
)

func makeTracks(n int) []model.Track {
	tracks := make([]model.Track, n)
	for i := range tracks {
		tracks[i] = model.Track{ID: int64(i + 1)}
	}
	return tracks
}

func TestView_TotalPages(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{29, 1},
		{30, 1},
		{31, 2},
		{60, 2},
		{61, 3},
		{150, 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("total=%d", tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.total).TotalPages())
		})
	}
}

func TestView_SliceLengthInvariant(t *testing.T) {
	// Для всех размеров коллекции и всех валидных страниц длина среза
	// равна min(PageSize, total-(page-1)*PageSize) и не выходит за границы
	for _, total := range []int{0, 1, 29, 30, 31, 95, 150} {
		tracks := makeTracks(total)
		view := New(total)

		for page := 1; page <= view.maxPage(); page++ {
			view.SetPage(page)
			slice := view.Slice(tracks)

			want := total - (page-1)*PageSize
			if want > PageSize {
				want = PageSize
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, slice, want, "total=%d page=%d", total, page)

			if len(slice) > 0 {
				assert.Equal(t, int64((page-1)*PageSize+1), slice[0].ID)
			}
		}
	}
}

func TestView_SetPageClamps(t *testing.T) {
	view := New(95) // 4 страницы

	view.SetPage(0)
	assert.Equal(t, 1, view.Current())

	view.SetPage(-5)
	assert.Equal(t, 1, view.Current())

	view.SetPage(99)
	assert.Equal(t, 4, view.Current())

	// Пустая коллекция остается на странице 1
	empty := New(0)
	empty.SetPage(7)
	assert.Equal(t, 1, empty.Current())
}

func TestView_Navigation(t *testing.T) {
	view := New(65) // 3 страницы

	assert.False(t, view.HasPrev())
	assert.True(t, view.HasNext())

	view.Next()
	assert.Equal(t, 2, view.Current())
	assert.True(t, view.HasPrev())

	view.Next()
	view.Next() // за последнюю не уходит
	assert.Equal(t, 3, view.Current())
	assert.False(t, view.HasNext())

	view.Prev()
	assert.Equal(t, 2, view.Current())
}

func TestView_Window(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    []int
	}{
		{
			name:    "fewer pages than window",
			total:   95, // 4 страницы
			current: 2,
			want:    []int{1, 2, 3, 4},
		},
		{
			name:    "window start clamped to first page",
			total:   600, // 20 страниц
			current: 2,
			want:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		{
			name:    "window recentered around current",
			total:   600,
			current: 10,
			want:    []int{5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
		},
		{
			name:    "window end clamped to last page",
			total:   600,
			current: 20,
			want:    []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
		},
		{
			name:    "empty collection has no buttons",
			total:   0,
			current: 1,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := New(tt.total)
			view.SetPage(tt.current)
			assert.Equal(t, tt.want, view.Window())
		})
	}
}

func TestView_WindowInvariants(t *testing.T) {
	// Текущая страница всегда внутри окна, окно не шире WindowSize
	for _, total := range []int{30, 300, 600, 3000} {
		view := New(total)
		for page := 1; page <= view.TotalPages(); page++ {
			view.SetPage(page)
			window := view.Window()

			assert.LessOrEqual(t, len(window), WindowSize)
			assert.Contains(t, window, page)
			assert.GreaterOrEqual(t, window[0], 1)
			assert.LessOrEqual(t, window[len(window)-1], view.TotalPages())
		}
	}
}
