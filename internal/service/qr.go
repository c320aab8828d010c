package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/Nothend/MusicLover/internal/gateway/netease"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// qrImageSize размер PNG с QR-кодом в пикселях
const qrImageSize = 256

// QRCode сгенерированный QR-код входа
type QRCode struct {
	Key    string
	Base64 string // data URI с PNG
}

// QRStatus результат опроса статуса входа
type QRStatus struct {
	Code    int
	Message string
	Cookie  string
	IsVIP   bool
}

// QRService управляет входом по QR-коду
type QRService struct {
	qr      QRAPI
	cookies *CookieService
	logger  *zap.Logger
}

// NewQRService создает сервис входа по QR-коду
func NewQRService(qr QRAPI, cookies *CookieService, logger *zap.Logger) *QRService {
	return &QRService{
		qr:      qr,
		cookies: cookies,
		logger:  logger,
	}
}

// Generate запрашивает ключ входа и рендерит QR-код
func (s *QRService) Generate(ctx context.Context) (*QRCode, error) {
	key, err := s.qr.QRKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create login key: %w", err)
	}

	png, err := qrcode.Encode(s.qr.QRLoginURL(key), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	s.logger.Info("QR login code generated", zap.String("key", key))

	return &QRCode{
		Key:    key,
		Base64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Check опрашивает статус входа. При подтверждении сохраняет cookie
// и возвращает признак VIP из проверки аккаунта.
func (s *QRService) Check(ctx context.Context, key string) (*QRStatus, error) {
	if key == "" {
		return nil, fmt.Errorf("qr key is required")
	}

	result, err := s.qr.QRCheck(ctx, key)
	if err != nil {
		return nil, err
	}

	status := &QRStatus{Code: result.Code}
	switch result.Code {
	case netease.QRCodeExpired:
		status.Message = "二维码已过期"
	case netease.QRCodeWaiting:
		status.Message = "等待扫码"
	case netease.QRCodeScanned:
		status.Message = "已扫码，等待确认"
	case netease.QRCodeConfirmed:
		status.Message = "登录成功"
		status.Cookie = "MUSIC_U=" + result.Cookie

		_, vip, err := s.cookies.Set(ctx, status.Cookie)
		if err != nil {
			return nil, fmt.Errorf("failed to store login cookie: %w", err)
		}
		status.IsVIP = vip

		s.logger.Info("QR login confirmed", zap.Bool("vip", vip))
	default:
		status.Message = fmt.Sprintf("未知状态 %d", result.Code)
	}

	return status, nil
}
