package middleware

import (
	"net/http"
)

// RequestSizeLimitMiddleware caps request bodies at maxRequestSize bytes.
// The limit has to cover multipart image uploads, so it is set well above
// what plain form submissions need. A declared oversize body is rejected
// up front; chunked bodies hit the MaxBytesReader instead.
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestSize {
				http.Error(w, "リクエストが大きすぎます", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			next.ServeHTTP(w, r)
		})
	}
}
