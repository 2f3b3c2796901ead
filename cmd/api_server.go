package cmd

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rm-hull/api-pgd-client/internal"
	"github.com/rm-hull/api-pgd-client/internal/routes"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

type ServerOptions struct {
	DBPath    string
	Port      int
	Debug     bool
	Schedule  string
	BatchSize int
	Rate      float64
	CacheTTL  time.Duration
}

func ApiServer(opts ServerOptions) error {

	client, repo, observer, err := bootstrapWithOutbox(opts.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close repository: %v", err)
		}
	}()

	dispatcher := internal.NewDispatcher(client, repo, newLimiter(opts.Rate), internal.WithDispatchObserver(observer))
	scheduler, err := internal.StartCron(dispatcher, opts.Schedule, opts.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to start CRON jobs: %w", err)
	}
	defer scheduler.Stop()

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
		compress.Compress(),
		cors.Default(),
	)

	if opts.Debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		repo.Check(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize healthcheck: %v", err)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cache := memoize.NewMemoizer(ttl, 2*ttl)

	v1 := r.Group("/v1/pgd")
	v1.GET("/outbox", routes.OutboxStats(repo))
	v1.GET("/users/:email", routes.FetchUser(client, cache))
	v1.GET("/participants/:lotacao/:siape", routes.FetchParticipant(client, cache))

	addr := fmt.Sprintf(":%d", opts.Port)
	log.Printf("Starting HTTP API Server on port %d...", opts.Port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API Server failed to start on port %d: %v", opts.Port, err)
	}

	return nil
}
