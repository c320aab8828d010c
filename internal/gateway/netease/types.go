package netease

// artistRef артист в ответах каталога
type artistRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// albumRef альбом в ответах каталога
type albumRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PicURL      string `json:"picUrl"`
	Pic         int64  `json:"pic"`
	PublishTime int64  `json:"publishTime"`
}

// SongDetail детали трека из api/v3/song/detail
type SongDetail struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Artists     []artistRef `json:"ar"`
	Album       albumRef    `json:"al"`
	Duration    int64       `json:"dt"`
	TrackNumber int         `json:"no"`
	PublishTime int64       `json:"publishTime"`
}

// ArtistString возвращает имена артистов одной строкой через "/"
func (s SongDetail) ArtistString() string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}
	return joinNonEmpty(names, "/")
}

// SongURLData ссылка на аудиопоток из eapi/song/enhance/player/url/v1
type SongURLData struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Level   string `json:"level"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Bitrate int64  `json:"br"`
}

// LyricData тексты песен
type LyricData struct {
	Lyric           string
	TranslatedLyric string
}

// PlaylistData детали плейлиста из api/v6/playlist/detail
type PlaylistData struct {
	ID          int64
	Name        string
	Creator     string
	CoverImgURL string
	CreateTime  int64
	TrackCount  int
	Description string
	Tracks      []SongDetail
}

// AlbumData детали альбома из api/v1/album
type AlbumData struct {
	ID          int64
	Name        string
	Artist      string
	CoverImgURL string
	PublishTime int64
	Description string
	Songs       []SongDetail
}

// AccountStatus состояние сессии пользователя каталога
type AccountStatus struct {
	Valid bool
	VIP   bool
}

// QRCheckResult результат опроса статуса входа по QR-коду.
// Коды статуса: 800 - код истек, 801 - ожидание сканирования,
// 802 - отсканирован, ожидает подтверждения, 803 - вход выполнен.
type QRCheckResult struct {
	Code   int
	Cookie string // MUSIC_U, только при коде 803
}

// Коды статуса QR-входа
const (
	QRCodeExpired   = 800
	QRCodeWaiting   = 801
	QRCodeScanned   = 802
	QRCodeConfirmed = 803
)

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
