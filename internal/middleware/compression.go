package middleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"
)

// CompressionConfig holds the gzip settings.
type CompressionConfig struct {
	MinSize int // smallest response body worth compressing, in bytes
	Level   int // gzip level 1-9
}

func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{MinSize: 1024, Level: 6}
}

// Compress gzips responses for clients that accept it. WebSocket upgrades pass through untouched.
func Compress(cfg CompressionConfig, next http.Handler) http.Handler {
	var gz http.Handler
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(cfg.Level),
	)
	if err != nil {
		logrus.WithError(err).Warn("Invalid compression settings, using gzip defaults")
		gz = gzhttp.GzipHandler(next)
	} else {
		gz = wrapper(next)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
