package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// QRKey запрашивает новый unikey для входа по QR-коду
func (c *Client) QRKey(ctx context.Context) (string, error) {
	apiURL := c.apiBase + "/eapi/login/qrcode/unikey"

	payload := map[string]any{
		"type":   1,
		"header": requestHeader(),
	}

	body, _, err := c.postEAPI(ctx, apiURL, payload, nil)
	if err != nil {
		return "", err
	}
	if err := checkCode(body, "qr key"); err != nil {
		return "", err
	}

	var result struct {
		Unikey string `json:"unikey"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse qr key response: %w", err)
	}
	if result.Unikey == "" {
		return "", fmt.Errorf("qr key response contains no unikey")
	}

	return result.Unikey, nil
}

// QRLoginURL возвращает содержимое QR-кода для unikey
func (c *Client) QRLoginURL(unikey string) string {
	return c.webBase + "/login?codekey=" + unikey
}

// QRCheck опрашивает статус входа по QR-коду.
// При коде 803 извлекает MUSIC_U из заголовков Set-Cookie.
func (c *Client) QRCheck(ctx context.Context, unikey string) (*QRCheckResult, error) {
	apiURL := c.apiBase + "/eapi/login/qrcode/client/login"

	payload := map[string]any{
		"key":    unikey,
		"type":   1,
		"header": requestHeader(),
	}

	body, headers, err := c.postEAPI(ctx, apiURL, payload, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse qr login response: %w", err)
	}

	check := &QRCheckResult{Code: result.Code}
	if result.Code == QRCodeConfirmed {
		check.Cookie = extractMusicU(headers)
		if check.Cookie == "" {
			return nil, fmt.Errorf("qr login confirmed but MUSIC_U cookie is missing")
		}
	}

	return check, nil
}

// extractMusicU достает значение MUSIC_U из заголовков Set-Cookie
func extractMusicU(headers http.Header) string {
	for _, raw := range headers.Values("Set-Cookie") {
		for _, part := range strings.Split(raw, ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "MUSIC_U=") {
				return strings.TrimPrefix(part, "MUSIC_U=")
			}
		}
	}
	return ""
}
