package main

import (
	"os"
	"os/signal"
	"syscall"

	config "github.com/avvvet/pickup-services/configs"
	"github.com/avvvet/pickup-services/internal/comm"
	gamecfg "github.com/avvvet/pickup-services/internal/gamesvc/config"
	natscli "github.com/avvvet/pickup-services/internal/nats"
	"github.com/avvvet/pickup-services/internal/notifysvc/broker"
	"github.com/avvvet/pickup-services/internal/notifysvc/mailer"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "notify"

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
	if cfg.SMTPHost == "" {
		log.Fatal("SMTP_HOST is required")
	}

	renderer, err := mailer.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to load e-mail templates: %v", err)
	}
	m := mailer.NewMailer(renderer,
		mailer.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPTimeout),
		cfg.MailFrom, cfg.NoReplyAddress)

	// Connect to NATS
	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"_service_"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn, m)
	sub, err := b.QueueSubscribe(comm.SubjectEmail, SERVICE_NAME)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(1)
	}
	log.Infof("%s service consuming %s", SERVICE_NAME, comm.SubjectEmail)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// finish in-flight e-mails before leaving
	if err := sub.Drain(); err != nil {
		log.Warnf("drain failed: %v", err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
