// Package limits caps request body sizes so oversized payloads fail fast
// instead of exhausting memory.
package limits

import "net/http"

// MaxJSONBody bounds every JSON request body this API accepts. The largest
// legitimate payloads (workspace or card writes) are well under a kilobyte.
const MaxJSONBody = 64 << 10 // 64 KB

// Body wraps each request body with a MaxBytesReader so json.Decoder fails
// with a clear error once the cap is exceeded.
func Body(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
		}
		next.ServeHTTP(w, r)
	})
}
