// Command huawei-solar polls a Huawei SUN2000 inverter over Modbus and
// prints its register values.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/kvaps/huawei-solar-go/internal/config"
	"github.com/kvaps/huawei-solar-go/internal/registers"
	"github.com/kvaps/huawei-solar-go/internal/session"
	"github.com/kvaps/huawei-solar-go/internal/transport"
	"github.com/kvaps/huawei-solar-go/pkg/huaweisolar"
)

func main() {
	var cfgPath string
	var interval time.Duration
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to the inverter connection profile")
	flag.DurationVar(&interval, "interval", 30*time.Second, "polling interval")
	flag.Parse()

	profile, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Printf("received signal: %v, shutting down...", s)
		cancel()
	}()

	var tr transport.Transport
	switch profile.Mode {
	case "tcp":
		tr = transport.NewTCP(transport.TCPConfig{
			Host:    profile.TCP.Host,
			Port:    profile.TCP.Port,
			Timeout: profile.Timeout,
			SlaveID: profile.SlaveID,
		})
	case "rtu":
		tr = transport.NewRTU(transport.RTUConfig{
			SerialPort: profile.RTU.SerialPort,
			BaudRate:   profile.RTU.BaudRate,
			DataBits:   profile.RTU.DataBits,
			StopBits:   profile.RTU.StopBits,
			Parity:     profile.RTU.Parity,
			Timeout:    profile.Timeout,
			SlaveID:    profile.SlaveID,
		})
	}

	cat, err := registers.NewHuaweiCatalog()
	if err != nil {
		log.Fatalf("build register catalog: %v", err)
	}

	bridge, err := huaweisolar.Create(ctx, cat, session.Config{
		Transport:    tr,
		SlaveID:      profile.SlaveID,
		Timeout:      profile.Timeout,
		CooldownTime: profile.Cooldown,
		Wait:         profile.Wait,
		MaxTries:     profile.MaxTries,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer bridge.Stop()

	if profile.Username != "" {
		if err := bridge.Login(ctx, profile.Username, profile.Password); err != nil {
			log.Fatalf("login: %v", err)
		}
	}

	info, err := bridge.GetInfo(ctx)
	if err != nil {
		log.Fatalf("get info: %v", err)
	}
	log.Printf("connected to %s (serial %s)", info.ModelName, info.SerialNumber)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		values, err := bridge.Update(ctx)
		if err != nil {
			log.Printf("update: %v", err)
		} else {
			printValues(values)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printValues(values map[string]registers.Result) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := values[name]
		if res.Unit != nil {
			log.Printf("%s = %v %s", name, res.Value, *res.Unit)
		} else {
			log.Printf("%s = %v", name, res.Value)
		}
	}
}
