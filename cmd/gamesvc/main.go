package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/pickup-services/configs"
	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/broker"
	gamecfg "github.com/avvvet/pickup-services/internal/gamesvc/config"
	handlers "github.com/avvvet/pickup-services/internal/gamesvc/handlers"
	"github.com/avvvet/pickup-services/internal/gamesvc/notify"
	"github.com/avvvet/pickup-services/internal/gamesvc/service"
	"github.com/avvvet/pickup-services/internal/gamesvc/store"
	"github.com/avvvet/pickup-services/internal/gateway"
	"github.com/avvvet/pickup-services/internal/metrics"
	nats "github.com/avvvet/pickup-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
}

func main() {
	cfg, err := gamecfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// mongo connection
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	database, err := db.ConnectToDB(connectCtx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Disconnect(database)
	if err := db.EnsureIndexes(connectCtx, database); err != nil {
		log.Warnf("unable to ensure indexes: %v", err)
	}
	cancelConnect()
	log.Printf("mongo connection established successfully")

	// Connect to NATS
	n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"_service_"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// message broker for e-mail requests and game events
	b := broker.NewBroker(n.Conn)

	gameStore := store.NewGameStore(database)
	userStore := store.NewUserStore(database)
	paymentStore := store.NewPaymentStore(database)
	queueStore := store.NewEmailQueueStore(database)
	venueStore := store.NewVenueStore(database)

	policy := notify.NewPolicy(cfg.RootURL, cfg.NoReplyAddress, loc)
	paymentService := service.NewPaymentService(paymentStore, userStore)
	gameService := service.NewGameService(gameStore, userStore, queueStore, paymentService,
		b, b, policy, service.NewTasks(30*time.Second))
	userService := service.NewUserService(userStore)
	venueService := service.NewVenueService(venueStore)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	r.Handle("/metrics", metrics.Handler())

	// Init handlers and routes
	h := handlers.NewHandler(handlers.NewTokenAuth(cfg.JWTSecret), cfg.Port,
		gameService, userService, venueService, paymentService,
		gateway.NewClient(cfg.StripeAPIURL, cfg.StripeSecretKey))
	h.SetRoutes(r)

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

	// let queued e-mails and events reach NATS before the connection closes
	gameService.Wait()
	if err := n.Conn.Flush(); err != nil {
		log.Warnf("NATS flush failed: %v", err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
