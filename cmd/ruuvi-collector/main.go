package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ruuvicollector/internal/bluez"
	"ruuvicollector/internal/collector"
	"ruuvicollector/internal/companyid"
	"ruuvicollector/internal/config"
	"ruuvicollector/internal/consumer"
	"ruuvicollector/internal/registry"
	"ruuvicollector/internal/sensor"
	"ruuvicollector/internal/sensor/ruuvitag"
	"ruuvicollector/internal/util"
)

// version is the collector's release version, reported by --version.
const version = "0.1.0"

func main() {
	var (
		devicemapFlag = flag.String("devicemap", "", "JSON device map file")
		btdeviceFlag  = flag.String("btdevice", "hci0", "BLE adapter name")
		manualFlag    = flag.Bool("manual", false, "disable auto-discovery globally")
		intervalFlag  = flag.Int("interval", 3, "poll period in seconds; also the freshness threshold")
		consumerFlag  = flag.String("consumer", "stdout", "consumer kind: stdout|stdoutjson|influxdb|prometheus")
		promAddrFlag  = flag.String("prometheus-addr", ":9519", "listen address for --consumer=prometheus")
		companydbFlag = flag.String("companydb", "", "optional YAML overlay for the diagnostic company-ID directory")
		listFlag      = flag.Bool("list", false, "one-shot mode: poll once, print, and exit")
		versionFlag   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	util.Linef("[COLLECTOR]", util.ColorGreen, "starting at %s (version %s)", util.NowTimestamp(), version)

	if *intervalFlag <= 0 {
		util.Line("[ERROR]", util.ColorYellow, "--interval must be positive")
		os.Exit(1)
	}

	cfg, err := config.New(*devicemapFlag, flag.Args(), *manualFlag, *intervalFlag)
	if err != nil {
		util.Linef("[ERROR]", util.ColorYellow, "%v", err)
		os.Exit(1)
	}

	vendors, err := companyid.Load(*companydbFlag)
	if err != nil {
		util.Linef("[WARN]", util.ColorYellow, "companydb not fully loaded: %v", err)
	}

	sink, err := buildConsumer(*consumerFlag, *promAddrFlag)
	if err != nil {
		util.Linef("[ERROR]", util.ColorYellow, "%v", err)
		os.Exit(1)
	}
	if shutdowner, ok := sink.(interface{ Shutdown(context.Context) error }); ok {
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer scancel()
			if err := shutdowner.Shutdown(sctx); err != nil {
				util.Linef("[ERROR]", util.ColorYellow, "consumer shutdown: %v", err)
			}
		}()
	}

	decoders := sensor.NewRegistry(ruuvitag.DF3{}, ruuvitag.DF2{})
	resolver := sensor.NewResolver(decoders)
	reg := registry.New()
	bt := bluez.New(*btdeviceFlag)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := bt.Initialize(ctx); err != nil {
		util.Linef("[ERROR]", util.ColorYellow, "%v", err)
		os.Exit(1)
	}

	loop := collector.New(bt, reg, resolver, decoders, cfg, sink, time.Duration(*intervalFlag)*time.Second, vendors)

	if *listFlag {
		if err := loop.RunOnce(ctx); err != nil {
			util.Linef("[ERROR]", util.ColorYellow, "%v", err)
			os.Exit(1)
		}
		return
	}

	if err := loop.Run(ctx); err != nil {
		util.Linef("[ERROR]", util.ColorYellow, "%v", err)
		os.Exit(1)
	}
}

func buildConsumer(kind, promAddr string) (consumer.Consumer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "stdout", "":
		return consumer.Stdout{}, nil
	case "stdoutjson":
		return consumer.StdoutJSON{}, nil
	case "influxdb":
		return consumer.NewInfluxDB(), nil
	case "prometheus":
		return consumer.NewPrometheus(promAddr), nil
	default:
		return nil, fmt.Errorf("unknown --consumer %q", kind)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		select {
		case <-ch:
		default:
		}
	}()
	return ctx, cancel
}
