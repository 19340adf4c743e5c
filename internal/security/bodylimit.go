package security

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-pos/internal/common"
)

// BodyLimit caps upload size. Requests that declare a larger Content-Length are
// refused up front; the rest get a body that fails once Max bytes have been read.
type BodyLimit struct {
	Max int64
}

// ErrPayloadTooLarge is the AppError handlers return when the capped body overflows.
var ErrPayloadTooLarge = common.NewAppError("PAYLOAD_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, nil)

func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > b.Max {
			common.WriteError(w, ErrPayloadTooLarge)
			return
		}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		}
		next.ServeHTTP(w, r)
	})
}

// IsTooLarge reports whether err came from reading past the cap.
func IsTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
