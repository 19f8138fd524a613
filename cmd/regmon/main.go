package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/regmap.go/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/regmap/"
	device  = "+"
)

func init() {
	if val := os.Getenv("REGMAP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "id", device, "Device ID to monitor, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(device+mqtt.RxSuffix, mqtt.Handler(func(topic string, payload []byte) {
		log.Printf("%s: %s", strings.TrimSuffix(topic, mqtt.RxSuffix), describeRequest(payload))
	}))
	q.Sub(device+mqtt.TxSuffix, mqtt.Handler(func(topic string, payload []byte) {
		log.Printf("%s: -> %s", strings.TrimSuffix(topic, mqtt.TxSuffix), describeResponse(payload))
	}))
	<-(chan struct{})(nil)
}
