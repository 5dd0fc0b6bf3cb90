package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/cmd/utils"
	"github.com/KAsare1/Postly-server/service/cache"
	"github.com/KAsare1/Postly-server/service/forum"
	"github.com/KAsare1/Postly-server/service/metrics"
	notification "github.com/KAsare1/Postly-server/service/notifications"
	"github.com/KAsare1/Postly-server/service/render"
	"github.com/KAsare1/Postly-server/service/store"
	"github.com/KAsare1/Postly-server/service/user"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type APIServer struct {
	cfg   config.Config
	db    *gorm.DB
	pages cache.PageCache
	log   *logrus.Logger
}

func NewApiServer(cfg config.Config, db *gorm.DB, pages cache.PageCache, log *logrus.Logger) *APIServer {
	return &APIServer{
		cfg:   cfg,
		db:    db,
		pages: pages,
		log:   log,
	}
}

// Router assembles the full handler chain. The returned closer releases
// the access log writer.
func (s *APIServer) Router() (http.Handler, io.Closer, error) {
	st := store.New(s.db)
	views, err := render.New(s.log)
	if err != nil {
		return nil, nil, err
	}
	sessions := utils.NewSessions(s.cfg.SecretKey, s.cfg.SessionLifetime, st)
	limiter, err := utils.NewRateLimiter(s.cfg.WriteRateLimit, s.cfg.WriteRateBurst, s.log)
	if err != nil {
		return nil, nil, err
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/healthz", s.health(st)).Methods("GET")
	router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", mediaServer(s.cfg.MediaRoot))).Methods("GET", "HEAD")

	router.Use(sessions.Middleware, metrics.InstrumentHandler, limiter.Middleware)

	userHandler := user.NewHandler(st, sessions, views, s.log)
	userHandler.RegisterRoutes(router)

	forumHandler := forum.NewPostHandler(st, views, forum.Options{
		Pages:     s.pages,
		CacheTTL:  s.cfg.CacheTTL,
		Mailer:    notification.New(s.cfg),
		MediaRoot: s.cfg.MediaRoot,
		MaxUpload: s.cfg.MaxUploadBytes,
	}, s.log)
	forumHandler.RegisterRoutes(router)

	router.NotFoundHandler = sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		views.NotFound(w, r, utils.ActorFrom(r.Context()))
	}))

	accessLog := s.log.WriterLevel(logrus.InfoLevel)
	var h http.Handler = recoverer(views, s.log)(router)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	h = handlers.ProxyHeaders(h)
	return h, accessLog, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	handler, accessLog, err := s.Router()
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	defer accessLog.Close()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("Server running")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *APIServer) health(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := st.Ping(ctx); err != nil {
			s.log.WithError(err).Warn("health check failed")
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// mediaServer serves uploaded files without directory listings.
func mediaServer(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

// recoverer turns a panicking handler into the 500 page.
func recoverer(views *render.Renderer, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.WithFields(logrus.Fields{
						"panic":  p,
						"method": r.Method,
						"path":   r.URL.Path,
					}).Error("handler panicked")
					views.ServerError(w, utils.ActorFrom(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
