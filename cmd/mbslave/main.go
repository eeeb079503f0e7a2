package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/mbascii/pkg/bridge/mqtt"
	"github.com/robotalks/mbascii/pkg/config"
	"github.com/robotalks/mbascii/pkg/framework"
	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/station"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()

	conf := config.NewConfig()
	if err := conf.Validate(config.RoleStation); err != nil {
		log.Fatalln(err)
	}
	tr, err := conf.OpenTransport()
	if err != nil {
		log.Fatalf("open %s: %v", conf.Port, err)
	}
	defer tr.Close()

	st, err := conf.NewStation(tr)
	if err != nil {
		log.Fatalln(err)
	}
	taps := link.Taps{&link.LogTap{Name: "station"}}

	db, err := conf.OpenJournal()
	if err != nil {
		log.Fatalln(err)
	}
	if db != nil {
		defer db.Close()
		st.Store = db
		if err := st.Restore(); err != nil {
			log.Fatalf("restore text: %v", err)
		}
		taps = append(taps, db.Tap("station"))
	}

	q, err := conf.DialMQTT(config.RoleStation)
	if err != nil {
		log.Fatalln(err)
	}
	if q != nil {
		defer q.Close()
		b := mqtt.New(q)
		st.Observer = b
		taps = append(taps, b.Tap("station"))
	}
	st.Link.Tap = taps

	err = framework.NewRunner().HandleSignals().
		Go(framework.NamedRun("station", st)).
		Wait()
	for c, val := range st.Counters() {
		glog.Infof("station %d: %s=%d", st.Address(), station.Counter(c), val)
	}
	glog.Flush()
	if err != nil {
		log.Fatalln(err)
	}
}
