package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avvvet/qrcard-services/internal/comm"
	"github.com/avvvet/qrcard-services/internal/nats"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/qrcard-services/configs"

	"github.com/avvvet/qrcard-services/internal/socketsvc/broker"
	"github.com/avvvet/qrcard-services/internal/socketsvc/routes"
	"github.com/avvvet/qrcard-services/internal/socketsvc/ws"
)

const SERVICE_NAME = "socket"

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	port := os.Getenv("SOCKET_SERVICE_PORT")
	if port == "" {
		port = "4001"
	}

	// Connect to NATS
	n, err := nats.Connect(os.Getenv("NATS_URL"), os.Getenv("NATS_TOKEN"), SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(os.Getenv("CORS_ORIGINS"))

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// Initialize websocket handler
	s := ws.NewWs()

	// Initialize routes
	routes.SetRoutes(r, s)

	// Initialize broker subscribe to card service
	b := broker.NewBroker(n.Conn, s.Broadcast)

	sub, err := b.Subscribe(comm.CardSubject)
	if err != nil {
		log.Errorf("Error: unable to subscribe to %s %v", comm.CardSubject, err)
		os.Exit(1)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
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

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
