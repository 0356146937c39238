package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obstarget/internal/config"
	"obstarget/internal/model"
	"obstarget/internal/topic"
	"obstarget/internal/util"
)

var filters = []string{"u", "g", "r", "i", "z", "y"}

func main() {
	brokerAddr := flag.String("broker", "tcp://localhost:1883", "MQTT broker address, e.g. tcp://localhost:1883")
	topicName := flag.String("topic", config.DefaultMQTTTopic, "Topic the scheduler publishes targets on")
	interval := flag.Duration("interval", 2*time.Second, "Interval between published targets")
	count := flag.Int("count", 0, "Number of targets to publish, 0 for unlimited")
	firstID := flag.Int("first-id", 1, "Target id of the first published target")
	numExp := flag.Int("num-exp", 2, "Exposures per target")
	expTime := flag.Float64("exp-time", 15, "Seconds per exposure")

	flag.Parse()

	clientID := util.ClientID("target-sim")
	pub, err := topic.Connect(*brokerAddr, clientID, *topicName)
	if err != nil {
		log.Fatalf("failed to connect to broker: %v", err)
	}
	log.Printf("connected to MQTT broker %s as %s", *brokerAddr, clientID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	nextID := *firstID
	published := 0

	publish := func() {
		record := randomTarget(nextID, *numExp, *expTime)
		if err := pub.Publish(record); err != nil {
			log.Printf("publish error: %v", err)
			return
		}
		log.Printf("published target %d filter=%s ra=%.3f decl=%.3f", record.TargetID, record.Filter, record.RA, record.Decl)
		nextID++
		published++
	}

	publish()

	for *count == 0 || published < *count {
		select {
		case <-ctx.Done():
			log.Print("received shutdown signal, disconnecting")
			pub.Close()
			return
		case <-ticker.C:
			publish()
		}
	}

	log.Printf("published %d targets, disconnecting", published)
	pub.Close()
}

func randomTarget(id, numExp int, expTime float64) model.TargetTopic {
	times := make([]float64, numExp)
	for i := range times {
		times[i] = expTime
	}

	t := model.NewTarget(id, model.NoField, filters[rand.Intn(len(filters))], 0, 0, 0, numExp, times)
	t.SetRA(rand.Float64() * 360)
	t.SetDec(rand.Float64()*120 - 90)
	t.SetAng(rand.Float64() * 360)
	return t.Topic()
}
