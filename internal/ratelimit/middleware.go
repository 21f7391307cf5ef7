package ratelimit

import (
	"net/http"

	"github.com/foodrescue/foodrescued/internal/flash"
	"github.com/foodrescue/foodrescued/internal/session"
)

// Middleware throttles mutating dashboard actions per session. Requests
// without a session fall back to the remote address as the bucket key. A
// rejected request is bounced back to where it came from with an error
// banner; the backend never sees it.
func Middleware(limiter *Limiter, onReject ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if sess := session.FromContext(r.Context()); sess != nil {
				key = sess.ID
			}

			if !limiter.Allow(key) {
				for _, fn := range onReject {
					fn()
				}
				flash.Error(w, r, "Zu viele Aktionen. Bitte einen Moment warten.")
				target := r.Header.Get("Referer")
				if target == "" {
					target = "/dashboard"
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
