package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/robotalks/mbascii/pkg/bridge/mqtt"
	"github.com/robotalks/mbascii/pkg/cli/sh"
	"github.com/robotalks/mbascii/pkg/config"
	"github.com/robotalks/mbascii/pkg/framework"
	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/transport"

	_ "github.com/robotalks/mbascii/pkg/cli/cmds/text"
)

var (
	listPorts bool
	serve     bool
)

func init() {
	config.SetupFlags()
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
	flag.BoolVar(&serve, "serve", serve, "Serve MQTT commands only, no shell.")
}

func main() {
	flag.Parse()
	if listPorts {
		for _, port := range transport.ListPorts() {
			fmt.Println(port)
		}
		return
	}

	conf := config.NewConfig()
	if err := conf.Validate(config.RoleMaster); err != nil {
		log.Fatalln(err)
	}
	tr, err := conf.OpenTransport()
	if err != nil {
		log.Fatalf("open %s: %v", conf.Port, err)
	}
	defer tr.Close()

	m := conf.NewMaster(tr)
	taps := link.Taps{&link.LogTap{Name: "master"}}
	runner := framework.NewRunner().HandleSignals()

	db, err := conf.OpenJournal()
	if err != nil {
		log.Fatalln(err)
	}
	if db != nil {
		defer db.Close()
		taps = append(taps, db.Tap("master"))
		m.Observer = db
	}

	q, err := conf.DialMQTT(config.RoleMaster)
	if err != nil {
		log.Fatalln(err)
	}
	if q != nil {
		defer q.Close()
		b := mqtt.New(q)
		taps = append(taps, b.Tap("master"))
		runner.Go(framework.NamedRun("mqtt", &mqtt.MasterService{Bridge: b, Queue: q, Commander: m}))
	}

	if !serve {
		shell := sh.New(conf, m)
		shell.Journal = db
		taps = append(taps, shell.Tap())
		runner.Go(framework.NamedRun("shell", framework.RunFunc(func(ctx context.Context) error {
			return shell.RunContext(ctx, flag.Args()...)
		})))
	} else if q == nil {
		log.Fatalln("-serve requires -mqtt")
	}
	m.Link.Tap = taps

	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
