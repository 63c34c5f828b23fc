package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fooddash/api/internal/logging"
)

// RouterConfig carries the services and middleware inputs for the API router.
type RouterConfig struct {
	Auth        Authenticator
	Orders      OrderManager
	Hub         Subscriber
	Logger      logging.Logger
	CORSOrigins []string
}

// NewRouter assembles the full API surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/customer/get_otp", HandleGetOTP(cfg.Auth))
			r.Post("/customer/verify_otp", HandleVerifyOTP(cfg.Auth))
			r.Post("/admin/login", HandleAdminLogin(cfg.Auth))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", HandlePlaceOrder(cfg.Orders))
			r.Get("/", HandleListOrders(cfg.Orders))
			r.Get("/user/{userID}", HandleListUserOrders(cfg.Orders))
			r.Put("/{orderID}/status", HandleUpdateOrderStatus(cfg.Orders))
			r.Post("/{orderID}/cancel", HandleCancelOrder(cfg.Orders))
		})

		r.Get("/notifications/subscribe/{userID}", HandleSubscribeNotifications(cfg.Hub))
	})

	return RequestLogger(CORS(cfg.CORSOrigins, r), cfg.Logger)
}
