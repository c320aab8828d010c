package netease

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nothend/MusicLover/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// newTestClient направляет оба базовых адреса на тестовый сервер
func newTestClient(server *httptest.Server) *Client {
	client := NewClient(server.Client(), zap.NewNop())
	client.apiBase = server.URL
	client.webBase = server.URL
	return client
}

func TestClient_SongURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eapi/song/enhance/player/url/v1", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.PostForm.Get("params"))

		// Базовые cookie должны присутствовать
		cookie, err := r.Cookie("deviceId")
		assert.NoError(t, err)
		assert.Equal(t, "pyncm!", cookie.Value)

		fmt.Fprint(w, `{"code":200,"data":[{"id":123,"url":"https://audio.example/123.flac","level":"lossless","size":34567890,"type":"flac","br":999000}]}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	data, err := client.SongURL(context.Background(), 123, model.QualityLossless, map[string]string{"MUSIC_U": "abc"})
	assert.NoError(t, err)
	assert.Equal(t, int64(123), data.ID)
	assert.Equal(t, "flac", data.Type)
	assert.Equal(t, int64(34567890), data.Size)
}

func TestClient_SongURL_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":404,"message":"resource not found"}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.SongURL(context.Background(), 123, model.QualityLossless, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resource not found")
}

func TestClient_PlaylistDetail_BatchesTracks(t *testing.T) {
	detailCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v6/playlist/detail":
			// 150 идентификаторов, чтобы проверить разбиение на пакеты по 100
			ids := ""
			for i := 1; i <= 150; i++ {
				if ids != "" {
					ids += ","
				}
				ids += fmt.Sprintf(`{"id":%d}`, i)
			}
			fmt.Fprintf(w, `{"code":200,"playlist":{"id":789,"name":"Test Mix","coverImgUrl":"https://pic.example/1.jpg","createTime":1620000000000,"trackCount":150,"creator":{"nickname":"dj"},"trackIds":[%s]}}`, ids)
		case "/api/v3/song/detail":
			detailCalls++
			fmt.Fprint(w, `{"code":200,"songs":[{"id":1,"name":"Song","ar":[{"name":"Artist"}],"al":{"name":"Album","picUrl":"https://pic.example/2.jpg"},"dt":201000}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	data, err := client.PlaylistDetail(context.Background(), 789, nil)
	assert.NoError(t, err)
	assert.Equal(t, "Test Mix", data.Name)
	assert.Equal(t, "dj", data.Creator)
	assert.Equal(t, 150, data.TrackCount)
	assert.Equal(t, 2, detailCalls)
}

func TestClient_Account(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantValid bool
		wantVIP   bool
	}{
		{
			name:      "valid vip profile",
			response:  `{"code":200,"profile":{"userId":42,"vipType":11},"account":{"vipType":11}}`,
			wantValid: true,
			wantVIP:   true,
		},
		{
			name:      "valid non-vip profile",
			response:  `{"code":200,"profile":{"userId":42,"vipType":0},"account":{"vipType":0}}`,
			wantValid: true,
			wantVIP:   false,
		},
		{
			name:      "expired session",
			response:  `{"code":200,"profile":null}`,
			wantValid: false,
			wantVIP:   false,
		},
		{
			name:      "rejected",
			response:  `{"code":301}`,
			wantValid: false,
			wantVIP:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.response)
			}))
			defer server.Close()

			client := newTestClient(server)

			status, err := client.Account(context.Background(), map[string]string{"MUSIC_U": "token"})
			assert.NoError(t, err)
			assert.Equal(t, tt.wantValid, status.Valid)
			assert.Equal(t, tt.wantVIP, status.VIP)
		})
	}
}

func TestClient_Account_NoCookies(t *testing.T) {
	client := NewClient(http.DefaultClient, zap.NewNop())

	// Без cookie запрос не выполняется вовсе
	status, err := client.Account(context.Background(), nil)
	assert.NoError(t, err)
	assert.False(t, status.Valid)
}

func TestClient_QRCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "NMTID=xyz; Path=/")
		w.Header().Add("Set-Cookie", "MUSIC_U=session-token-value; Path=/; HTTPOnly")
		fmt.Fprint(w, `{"code":803}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	result, err := client.QRCheck(context.Background(), "unikey-1")
	assert.NoError(t, err)
	assert.Equal(t, QRCodeConfirmed, result.Code)
	assert.Equal(t, "session-token-value", result.Cookie)
}

func TestClient_QRCheck_Waiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":801}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	result, err := client.QRCheck(context.Background(), "unikey-1")
	assert.NoError(t, err)
	assert.Equal(t, QRCodeWaiting, result.Code)
	assert.Empty(t, result.Cookie)
}

func TestClient_AlbumDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/album/456", r.URL.Path)
		fmt.Fprint(w, `{"code":200,"album":{"id":456,"name":"Album X","picUrl":"https://pic.example/a.jpg","publishTime":1620000000000,"description":"notes","artist":{"name":"Artist"}},"songs":[{"id":7,"name":"Seven","ar":[{"name":"Artist"}],"al":{"name":"Album X"},"dt":180000}]}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	data, err := client.AlbumDetail(context.Background(), 456, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(456), data.ID)
	assert.Equal(t, "Album X", data.Name)
	assert.Equal(t, "Artist", data.Artist)
	assert.Equal(t, "https://pic.example/a.jpg", data.CoverImgURL)
	assert.Equal(t, int64(1620000000000), data.PublishTime)
	assert.Len(t, data.Songs, 1)
}

func TestClient_AlbumDetail_PicFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"album":{"id":456,"name":"Album X","pic":109951165142214814,"artist":{"name":"Artist"}},"songs":[]}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	data, err := client.AlbumDetail(context.Background(), 456, nil)
	assert.NoError(t, err)
	// Без picUrl обложка строится из зашифрованного pic id
	assert.Equal(t, PicURL(109951165142214814, 300), data.CoverImgURL)
	assert.NotEmpty(t, data.CoverImgURL)
}

func TestSongDetail_ArtistString(t *testing.T) {
	song := SongDetail{Artists: []artistRef{{Name: "A"}, {Name: "B"}}}
	assert.Equal(t, "A/B", song.ArtistString())

	assert.Equal(t, "", SongDetail{}.ArtistString())
}
