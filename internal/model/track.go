package model

// LibraryMatch представляет аннотацию наличия трека в локальной библиотеке
type LibraryMatch struct {
	Exists            bool   `json:"exists"`
	Album             string `json:"album"`
	Artists           string `json:"artists"`
	FileType          string `json:"file_type"`
	FileSize          int64  `json:"file_size"`
	FileSizeFormatted string `json:"file_size_formatted"`
	IsMP3             bool   `json:"is_mp3"`
}

// EmptyLibraryMatch возвращает пустую аннотацию (трек не найден или проверка отключена)
func EmptyLibraryMatch() LibraryMatch {
	return LibraryMatch{}
}

// Track представляет один трек каталога
type Track struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Artists     string       `json:"ar_name"`
	Album       string       `json:"al_name"`
	Duration    int64        `json:"duration"` // миллисекунды
	PicURL      string       `json:"pic"`
	Level       QualityLevel `json:"level"`
	Size        int64        `json:"size"`
	URL         string       `json:"url,omitempty"`
	InNavidrome LibraryMatch `json:"in_navidrome"`
}

// CollectionKind различает плейлист и альбом
type CollectionKind string

const (
	// KindPlaylist плейлист пользователя
	KindPlaylist CollectionKind = "playlist"

	// KindAlbum альбом
	KindAlbum CollectionKind = "album"
)

// Collection представляет плейлист или альбом
type Collection struct {
	Kind        CollectionKind `json:"kind"`
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Creator     string         `json:"creator"`
	PicURL      string         `json:"coverImgUrl"`
	CreatedAt   string         `json:"createTime"` // YYYY-MM-DD
	TrackCount  int            `json:"trackCount"`
	Description string         `json:"description,omitempty"`
	Tracks      []Track        `json:"tracks"`
}
