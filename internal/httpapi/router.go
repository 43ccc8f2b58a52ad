package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/secrets"
)

var defaultOrigins = []string{
	"tauri://localhost",
	"http://tauri.localhost",
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewRouter wires every dashboard endpoint.
func NewRouter(d Deps) http.Handler {
	if d.SetSecret == nil {
		d.SetSecret = secrets.Set
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	log := logger.Named("http")

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(log))
	r.Use(Recover(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed")
	})

	hh := HealthHandler{Store: d.Store}
	r.Get("/health", hh.Health)

	lh := LeadsHandler{Store: d.Store, Hub: d.Hub, CfgVal: d.CfgVal}
	eh := EnrichHandler{Cache: d.EnrichCache, Config: d.config}
	rh := RunsHandler{Pipeline: d.Pipeline}
	sh := SecretsHandler{Config: d.config, Store: d.SetSecret}
	r.Route("/api", func(r chi.Router) {
		r.Get("/leads", lh.List)
		r.Get("/leads.csv", lh.CSV)
		// Lead IDs carry URLs, so the key is the rest of the path.
		r.Get("/leads/*", lh.Get)
		r.Patch("/leads/*", lh.PatchStatus)
		r.Get("/enrich", eh.Lookup)
		r.Post("/discover", rh.Discover)
		r.Get("/runs/latest", rh.Latest)
		r.With(LocalOnly).Post("/secrets/{name}", sh.Set)
	})
	r.Get("/scrape/status", rh.Status)

	evh := EventsHandler{Hub: d.Hub}
	r.Get("/events", evh.ServeSSE)

	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	r.Get("/config", ch.Get)
	r.With(LocalOnly).Put("/config", ch.Put)
	r.Get("/config/path", ch.Path)
	r.Get("/config/validate", ch.Validate)

	return r
}

// NewServer is the http.Server the serve command runs.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
