package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Credential сохраненная сессия музыкального сервиса
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:c"`

	ID        int64     `bun:"credential_id,pk,autoincrement" json:"id"`
	Cookie    string    `bun:"cookie,notnull" json:"-"`
	Valid     bool      `bun:"valid,notnull,default:false" json:"valid"`
	VIP       bool      `bun:"vip,notnull,default:false" json:"vip"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// DownloadRecord запись истории скачиваний
type DownloadRecord struct {
	bun.BaseModel `bun:"table:download_history,alias:dh"`

	ID        int64     `bun:"record_id,pk,autoincrement" json:"id"`
	SongID    int64     `bun:"song_id,notnull" json:"song_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Artists   string    `bun:"artists" json:"artists"`
	Level     string    `bun:"level" json:"level"`
	FileSize  int64     `bun:"file_size" json:"file_size"`
	FileType  string    `bun:"file_type" json:"file_type"`
	ClientIP  string    `bun:"client_ip" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// CredentialRepository интерфейс хранилища сессий
type CredentialRepository interface {
	Get() (*Credential, error)
	Save(credential *Credential) error
	Clear() error
}

// HistoryRepository интерфейс истории скачиваний
type HistoryRepository interface {
	Add(record *DownloadRecord) error
	Recent(limit int) ([]DownloadRecord, error)
	Count() (int, error)
}
