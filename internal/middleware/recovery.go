package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// recoveryPage is the fallback body for failures caught at the outermost
// boundary, used when the template renderer itself may be unavailable
const recoveryPage = `<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>YamaCamp</title></head>
<body><h1>問題が発生しました</h1><p><a href="/campgrounds">キャンプ場一覧へ戻る</a></p></body>
</html>`

// RecoveryMiddleware recovers from panics and logs the error
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := GetRequestID(r.Context())
					logger.Error("panic recovered",
						zap.String("request_id", requestID),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("error", err),
					)

					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(recoveryPage))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
