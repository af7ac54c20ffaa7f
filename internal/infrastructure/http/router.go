package http

import (
	"net/http"

	"servicehub/internal/config"
	"servicehub/internal/metrics"
	jwtutil "servicehub/pkg/jwt"
	"servicehub/pkg/middleware"
	"servicehub/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires every controller into the HTTP surface. Discovery
// endpoints are public; everything that acts on behalf of a user sits
// behind JWT auth, with provider and admin actions further role-gated.
func NewRouter(
	cfg *config.Config,
	jwtManager *jwtutil.JWTManager,
	auth *HTTPAuthController,
	bookings *HTTPBookingController,
	payments *HTTPPaymentController,
	providers *HTTPProviderController,
	services *HTTPServiceController,
	admin *HTTPAdminController,
	notifications *HTTPNotificationController,
	logger zerolog.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(metrics.Middleware(routePattern))
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		r.Use(limiter.Middleware)
	}
	r.Use(middleware.TimeoutMiddleware(cfg.HTTP.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.SendSuccess(w, r, map[string]string{"status": "ok", "version": cfg.App.Version})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		r.Get("/providers", providers.ListProviders)
		r.Get("/providers/{id}", providers.GetProvider)
		r.Get("/providers/{id}/services", providers.ListProviderServices)
		r.Get("/providers/{id}/reviews", providers.ListProviderReviews)
		r.Get("/services", services.ListServices)
		r.Get("/services/{id}", services.GetService)

		// The gateway authenticates itself with the webhook signature,
		// and the verify callback carries no session.
		r.Post("/webhooks/paystack", payments.Webhook)
		r.Get("/payments/verify", payments.VerifyPayment)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(jwtManager))

			r.Post("/auth/change-password", auth.ChangePassword)

			r.Post("/bookings", bookings.CreateBooking)
			r.Get("/bookings", bookings.ListMyBookings)
			r.Get("/bookings/{id}", bookings.GetBooking)
			r.Get("/bookings/{id}/payment", bookings.GetBookingPayment)
			r.Post("/bookings/{id}/pay", payments.InitializePayment)
			r.Post("/bookings/{id}/cancel", bookings.CancelBooking)
			r.Post("/bookings/{id}/confirm", bookings.ConfirmCompletion)
			r.Post("/bookings/{id}/review", bookings.SubmitReview)

			r.Post("/providers", providers.RegisterProvider)
			r.Get("/payouts/{id}/receipt", providers.GetPayoutReceipt)

			r.Get("/notifications", notifications.ListNotifications)
			r.Get("/notifications/unread-count", notifications.UnreadCount)
			r.Post("/notifications/{id}/read", notifications.MarkRead)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireProvider)

				r.Get("/provider/bookings", bookings.ListAssignedBookings)
				r.Get("/provider/payouts", providers.ListMyPayouts)

				r.Post("/bookings/{id}/accept", bookings.AcceptBooking)
				r.Post("/bookings/{id}/decline", bookings.DeclineBooking)
				r.Post("/bookings/{id}/start", bookings.StartJob)
				r.Post("/bookings/{id}/finish", bookings.FinishJob)
				r.Post("/bookings/{id}/cash-received", bookings.ConfirmCashReceived)

				r.Put("/providers/{id}", providers.UpdateProfile)
				r.Post("/providers/{id}/photo", providers.UploadPhoto)
				r.Put("/providers/{id}/bank-account", providers.UpdateBankAccount)

				r.Post("/services", services.CreateService)
				r.Put("/services/{id}", services.UpdateService)
				r.Post("/services/{id}/image", services.UploadImage)
				r.Delete("/services/{id}", services.DeactivateService)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/admin/payouts", admin.ListPayouts)
				r.Get("/admin/payouts/export", admin.ExportPayouts)
				r.Post("/admin/payouts/{id}/process", admin.ProcessPayout)
				r.Post("/admin/payouts/{id}/mark-paid", admin.MarkPayoutPaid)
			})
		})
	})

	return r
}

// routePattern labels request metrics with the chi route template instead
// of the raw path, keeping cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
