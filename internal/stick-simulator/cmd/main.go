package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	stickSimulator "github.com/LeonardoBeccarini/smartstick_monitor/internal/stick-simulator"
	"github.com/LeonardoBeccarini/smartstick_monitor/pkg/mqttbus"
)

func main() {
	host := flag.String("host", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	user := flag.String("user", "", "MQTT user")
	password := flag.String("password", "", "MQTT password")
	clientID := flag.String("client-id", "smartstick-sim", "MQTT client ID")
	prefix := flag.String("prefix", "smartstick", "topic prefix")
	interval := flag.Duration("interval", time.Second, "publish interval")
	tz := flag.String("tz", "Asia/Kuala_Lumpur", "device time zone")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Error("stick-sim: bad time zone", "tz", *tz, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mqttbus.Connect(ctx, &mqttbus.Config{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *password,
		ClientID: *clientID,
	}, log)
	if err != nil {
		log.Error("stick-sim: connect", "err", err)
		os.Exit(1)
	}

	publisher := mqttbus.NewPublisher(client, *prefix)
	consumer := mqttbus.NewConsumer(client, mqttbus.Topic(*prefix, stickSimulator.CommandPath), 1, nil, log)
	generator := stickSimulator.NewDataGenerator(nil, loc)
	sim := stickSimulator.NewStickSimulator(consumer, publisher, generator, log)

	log.Info("stick-sim: publishing", "prefix", *prefix, "interval", *interval)
	sim.Start(ctx, *interval)
}
