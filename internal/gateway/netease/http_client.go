// Package netease реализует клиент для работы с API музыкального каталога.
package netease

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/Nothend/MusicLover/internal/config"
	"go.uber.org/zap"
)

// NewHTTPClient создает новый HTTP клиент с оптимизированными настройками
func NewHTTPClient(cfg config.HTTPClientConfig, logger *zap.Logger) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
			MinVersion:         tls.VersionTLS12,
		},
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}

	logger.Info("HTTP client created with connection pooling",
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("max_idle_conns_per_host", cfg.MaxIdleConnsPerHost),
		zap.Duration("idle_conn_timeout", cfg.IdleConnTimeout),
		zap.Bool("disable_keep_alives", cfg.DisableKeepAlives))

	return client
}
