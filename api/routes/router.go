package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cafemuji/cafemuji-backend/api/controllers"
	cartcontrollers "github.com/cafemuji/cafemuji-backend/api/controllers/cart"
	ordercontrollers "github.com/cafemuji/cafemuji-backend/api/controllers/orders"
	"github.com/cafemuji/cafemuji-backend/api/middleware"
	"github.com/cafemuji/cafemuji-backend/internal/auth"
	"github.com/cafemuji/cafemuji-backend/internal/cart"
	"github.com/cafemuji/cafemuji-backend/internal/orders"
	"github.com/cafemuji/cafemuji-backend/pkg/auth/session"
	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
	"github.com/cafemuji/cafemuji-backend/pkg/redis"
)

// Dependencies bundles what the HTTP surface needs.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *redis.Client
	Sessions      session.AccessSessionChecker
	Gatherer      prometheus.Gatherer
	AuthService   auth.Service
	OrdersService orders.Service
	CartService   cart.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	var redisPinger controllers.Pinger
	var rateStore *redis.Client
	if deps.Redis != nil {
		redisPinger = deps.Redis
		rateStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
		r.Get("/orders", controllers.HealthOrders(deps.OrdersService, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	r.Route("/api/v1/auth", func(r chi.Router) {
		if rateStore != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		} else {
			r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, cfg.AuthRateLimit.IdempotencyReplayTTL, logg))
		}

		r.Post("/mobile/food/orders", ordercontrollers.MobileFoodOrder(deps.OrdersService, logg))

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/board", ordercontrollers.Board(deps.OrdersService, logg))
			r.Get("/board/counts", ordercontrollers.BoardCounts(deps.OrdersService, logg))
			r.Post("/admission/recompute", ordercontrollers.RecomputeAdmission(deps.OrdersService, logg))
			r.Get("/statistics", ordercontrollers.Statistics(deps.OrdersService, logg))

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", ordercontrollers.SubmitGroup(deps.OrdersService, logg))
				r.Post("/{groupID}/complete", ordercontrollers.CompleteGroup(deps.OrdersService, logg))
				r.Put("/{groupID}/status", ordercontrollers.SetGroupStatus(deps.OrdersService, logg))
				r.Delete("/{groupID}", ordercontrollers.DeleteGroup(deps.OrdersService, logg))
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", ordercontrollers.ListItems(deps.OrdersService, logg))
				r.Get("/{itemID}", ordercontrollers.GetItem(deps.OrdersService, logg))
				r.Post("/{itemID}/complete", ordercontrollers.CompleteItem(deps.OrdersService, logg))
				r.Patch("/{itemID}/status", ordercontrollers.SetItemStatus(deps.OrdersService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.CartService, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.CartService, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.CartService, logg))
				r.Delete("/items/{index}", cartcontrollers.CartRemoveItem(deps.CartService, logg))
				r.Put("/clip", cartcontrollers.CartSetClip(deps.CartService, logg))
				r.Delete("/puddings", cartcontrollers.CartRemovePuddings(deps.CartService, logg))
				r.Post("/submit", cartcontrollers.CartSubmit(deps.CartService, logg))
			})
		})
	})

	return r
}
