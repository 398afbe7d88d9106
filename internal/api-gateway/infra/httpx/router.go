package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/infra/httpx/middlewares"
)

// NewRouter mounts the checkout API. metrics may be nil. Every request gets
// a server span named after its method and path.
func NewRouter(handler *Handler, metrics http.Handler, serviceName string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/checkouts", handler.CreateCheckout)
	r.Get("/checkouts/{id}", handler.GetCheckout)
	r.Get("/checkouts/{id}/journal", handler.GetJournal)
	r.Get("/healthz", handler.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	return otelhttp.NewHandler(r, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
