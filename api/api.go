package api

import (
	"context"
	"net/http"
	"regexp"

	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/jinzhu/gorm"
	"github.com/pborman/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"

	"github.com/stablelink/stablelink/assetstores"
	"github.com/stablelink/stablelink/conf"
	gcontext "github.com/stablelink/stablelink/context"
	"github.com/stablelink/stablelink/graceful"
	"github.com/stablelink/stablelink/mailer"
)

const defaultVersion = "unknown version"

var bearerRegexp = regexp.MustCompile(`^(?:B|b)earer (\S+$)`)

// API is the main REST API.
type API struct {
	handler http.Handler
	db      *gorm.DB
	config  *conf.GlobalConfiguration
	version string
}

// ListenAndServe starts the REST API.
func (a *API) ListenAndServe(hostAndPort string) {
	log := logrus.WithField("component", "api")
	server := graceful.NewGracefulServer(a.handler, log)
	if err := server.ListenAndServe(hostAndPort); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
}

// NewAPI instantiates a new REST API using the default version.
func NewAPI(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, db *gorm.DB) *API {
	return NewAPIWithVersion(globalConfig, config, db, defaultVersion)
}

// NewAPIWithVersion instantiates a new REST API.
func NewAPIWithVersion(globalConfig *conf.GlobalConfiguration, config *conf.Configuration, db *gorm.DB, version string) *API {
	api := &API{
		config:  globalConfig,
		db:      db,
		version: version,
	}

	ctx, err := withServiceConfig(context.Background(), config)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to prepare service configuration")
	}

	xffmw, _ := xff.Default()

	r := newRouter()
	r.UseBypass(xffmw.Handler)
	r.Use(withRequestID)
	r.UseBypass(newStructuredLogger(logrus.StandardLogger()))
	r.UseBypass(chimiddleware.Recoverer)
	r.UseBypass(requestMetrics)
	r.Use(withToken)

	// endpoints
	r.Get("/", api.Index)
	r.Get("/health", api.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/users", api.userRoutes)
	r.Route("/links", api.linkRoutes)
	r.Route("/checkout", api.checkoutRoutes)

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
	})

	api.handler = corsHandler.Handler(chi.ServerBaseContext(r, ctx))

	return api
}

func (a *API) userRoutes(r *router) {
	r.With(authRequired).Post("/", a.UserUpsert)
	r.With(authRequired).Get("/available", a.UserHandleAvailable)

	r.Route("/{handle}", func(r *router) {
		r.Get("/", a.UserView)
		r.Get("/links", a.ProfileLinkList)
	})
}

func (a *API) linkRoutes(r *router) {
	r.Use(authRequired)

	r.Get("/", a.LinkList)
	r.Post("/", a.LinkCreate)
	r.Get("/available", a.LinkPathAvailable)

	r.Route("/{link_id}", func(r *router) {
		r.Use(a.withLinkID)
		r.Get("/", a.LinkView)
		r.Put("/", a.LinkUpdate)
		r.Delete("/", a.LinkDelete)
		r.Get("/sales", a.SaleList)
	})
}

func (a *API) checkoutRoutes(r *router) {
	r.Route("/{handle}/{slug}", func(r *router) {
		r.Get("/", a.CheckoutView)
		r.Post("/", a.CheckoutPay)
	})
}

func withRequestID(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	id := uuid.NewRandom().String()
	ctx := gcontext.WithRequestID(r.Context(), id)
	return ctx, nil
}

func withServiceConfig(ctx context.Context, config *conf.Configuration) (context.Context, error) {
	ctx = gcontext.WithConfig(ctx, config)
	ctx = gcontext.WithMailer(ctx, mailer.NewMailer(config))

	store, err := assetstores.NewStore(config)
	if err != nil {
		return nil, err
	}
	ctx = gcontext.WithAssetStore(ctx, store)

	return ctx, nil
}
