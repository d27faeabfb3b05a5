package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/qrcard-services/configs"
	"github.com/avvvet/qrcard-services/internal/cardsvc/broker"
	cardconfig "github.com/avvvet/qrcard-services/internal/cardsvc/config"
	carddb "github.com/avvvet/qrcard-services/internal/cardsvc/db"
	"github.com/avvvet/qrcard-services/internal/cardsvc/handlers"
	"github.com/avvvet/qrcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/qrcard-services/internal/cardsvc/render"
	"github.com/avvvet/qrcard-services/internal/cardsvc/service"
	"github.com/avvvet/qrcard-services/internal/cardsvc/store"
	"github.com/avvvet/qrcard-services/internal/db"
	natscli "github.com/avvvet/qrcard-services/internal/nats"
)

const SERVICE_NAME = "card"

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	cfg, err := cardconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cardStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s card store: %v", cfg.StoreBackend, err)
	}
	log.Infof("%s card store ready", cfg.StoreBackend)

	renderer, err := render.New(render.PNGEncoder{Size: cfg.QRSize})
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	cardService := service.NewCardService(cardStore)

	// card events are optional; without NATS_URL the live feed stays silent
	var n *natscli.Nats
	if cfg.NatsURL != "" {
		n, err = natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		log.Printf("NATS connection established successfully %s", n.Url)

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + cfg.Port
		}
		b := broker.NewBroker(n.Conn, func(code string) string { return baseURL + "/card/" + code })
		cardService.WithNotifier(b)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	if cfg.BaseURL == "" {
		log.Warn("BASE_URL is not set; card URLs and QR codes will use the request Host header, set BASE_URL when behind an untrusted proxy")
	}

	// Init handlers and routes
	h := handlers.NewHandler(cardService, renderer, cfg.BaseURL)
	h.SetRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	if err := cardStore.Close(ctx); err != nil {
		log.Errorf("closing card store: %v", err)
	}
	if n != nil {
		n.Conn.Close()
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// openStore picks the storage backend once at start.
func openStore(cfg cardconfig.Config) (store.CardStore, error) {
	switch cfg.StoreBackend {
	case cardconfig.BackendMongo:
		database, err := db.ConnectToDB(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, err := store.NewMongoStore(ctx, database, cfg.MongoCollection)
		if err != nil {
			_ = database.Client().Disconnect(context.Background())
			return nil, err
		}
		return s, nil

	case cardconfig.BackendPostgres:
		pool, err := carddb.Connect(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := carddb.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return store.NewPGStore(pool), nil

	default:
		log.Warn("file card store serializes writes in this process only; do not share the data file between instances")
		return store.NewFileStore(cfg.DataFile)
	}
}
