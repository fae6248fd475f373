package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/pickup-services/configs"
	"github.com/avvvet/pickup-services/internal/alert"
	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/broker"
	gamecfg "github.com/avvvet/pickup-services/internal/gamesvc/config"
	"github.com/avvvet/pickup-services/internal/gamesvc/notify"
	"github.com/avvvet/pickup-services/internal/gamesvc/service"
	"github.com/avvvet/pickup-services/internal/gamesvc/store"
	natscli "github.com/avvvet/pickup-services/internal/nats"
	"github.com/avvvet/pickup-services/internal/scheduler"
)

const SERVICE_NAME = "cron"

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
	cancelConnect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Disconnect(database)
	log.Printf("mongo connection established successfully")

	// Connect to NATS
	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"_service_"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn)
	gameStore := store.NewGameStore(database)
	userStore := store.NewUserStore(database)

	telegram, err := alert.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatIDs)
	if err != nil {
		log.Errorf("telegram alerts disabled: %v", err)
	}

	reminders := service.NewReminderService(store.NewEmailQueueStore(database), gameStore, userStore, b,
		notify.NewPolicy(cfg.RootURL, cfg.NoReplyAddress, loc))
	payouts := service.NewPayoutService(store.NewPaymentStore(database), gameStore, userStore,
		alert.NewPayoutAlerts(b, telegram))

	s := scheduler.New(loc, 5*time.Minute)
	if err := s.Add("reminders", cfg.EmailCheckSchedule, reminders.SendDue); err != nil {
		log.Fatal(err)
	}
	if err := s.Add("payouts", cfg.PayoutSchedule, payouts.RequestDue); err != nil {
		log.Fatal(err)
	}
	s.Start()
	log.Infof("%s service started", SERVICE_NAME)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.Stop(ctx)

	if err := n.Conn.Flush(); err != nil {
		log.Warnf("NATS flush failed: %v", err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
