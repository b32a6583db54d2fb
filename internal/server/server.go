package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/emrgen/linktrace/internal/cache"
	"github.com/emrgen/linktrace/internal/compress"
	"github.com/emrgen/linktrace/internal/config"
	"github.com/emrgen/linktrace/internal/geoip"
	"github.com/emrgen/linktrace/internal/job"
	"github.com/emrgen/linktrace/internal/jobs"
	"github.com/emrgen/linktrace/internal/meta"
	"github.com/emrgen/linktrace/internal/service"
	"github.com/emrgen/linktrace/internal/store"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.httpPort); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start starts the http server and the background jobs, then blocks until
// an interrupt arrives.
func Start(httpPort string) error {
	httpPort = ":" + httpPort

	cnf := config.LoadConfig()
	rdb := config.GetDb(cnf)

	linkStore := store.NewGormStore(rdb)
	if err := linkStore.Migrate(); err != nil {
		return err
	}

	// the cache is optional: when redis is unreachable every lookup goes to
	// the store directly
	var encoder compress.Compress = compress.NewGZip()
	if !cnf.CacheCompress {
		encoder = compress.NewNop()
	}

	var linkCache *cache.Redis
	redis := cache.NewRedis(cnf.RedisAddr, encoder)
	if err := redis.Ping(context.Background()); err != nil {
		logrus.Warnf("redis unavailable at %s, running without cache: %v", cnf.RedisAddr, err)
	} else {
		linkCache = redis
	}

	links := service.NewLinkService(linkStore, linkCache)
	visits := service.NewVisitService(linkStore, geoip.NewClient(cnf.GeoEndpoint), cnf.TrackRequireLink)
	scraper := meta.NewScraper(linkCache)

	router := NewRouter(links, visits, scraper, cnf)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    httpPort,
		Handler: c.Handler(router),
	}

	executor := jobs.NewTaskExecutor(nil, []jobs.CronJob{
		job.NewVisitPruner(linkStore, cnf.VisitRetention),
	})
	executor.Run()

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := httpServer.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	executor.Stop()
	if err := httpServer.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	return nil
}

// NewRouter wires every route of the service onto a gin engine.
func NewRouter(links *service.LinkService, visits *service.VisitService, scraper *meta.Scraper, cnf *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := NewHandlers(links, visits, scraper, cnf)

	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/:id", h.GetLink)
		api.DELETE("/links/:id", h.DeleteLink)
		api.POST("/track/:id", h.Track)
	}

	router.GET("/t/:id", h.Open)
	router.GET("/file/:filename", h.OpenFile)
	router.GET("/photo/:filename", h.OpenPhoto)

	// the dashboard entry page, also the fallback for unmatched paths as the
	// dashboard handles its own routing client side
	router.GET("/", h.Dashboard)
	router.NoRoute(h.Dashboard)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logrus.Infof("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
