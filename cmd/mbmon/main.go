package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/mbascii/pkg/bridge/mqtt"
	"github.com/robotalks/mbascii/pkg/config"
	"github.com/robotalks/mbascii/pkg/frame"
)

var (
	mqttURL = "mqtt://localhost:1883/mbascii/"
)

func init() {
	if val := os.Getenv("MBASCII_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.Dial(mqttURL, config.ClientID("monitor"))
	if err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		msg, err := mqtt.Decode(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		if ev, ok := msg.(*mqtt.FrameEvent); ok {
			log.Printf("%s: %s", topic, frame.HexDump(ev.Raw))
		}
		log.Printf("%s: [%s] %s", topic, reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	}))
	<-(chan struct{})(nil)
}
