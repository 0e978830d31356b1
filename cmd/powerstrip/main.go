// Command powerstrip controls a four-channel switched power strip: it
// samples the INA219 power monitors once per tick, integrates energy and
// cost, enforces per-channel usage limits and countdown timers, and
// publishes state over WebSocket and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/powerstrip/internal/config"
	"github.com/sweeney/powerstrip/internal/core"
	"github.com/sweeney/powerstrip/internal/mqtt"
	"github.com/sweeney/powerstrip/internal/relay"
	"github.com/sweeney/powerstrip/internal/sensor"
	"github.com/sweeney/powerstrip/internal/status"
	"github.com/sweeney/powerstrip/internal/store"
	"github.com/sweeney/powerstrip/internal/web"
)

// Environment variable overrides, between flags and the config file.
const (
	envBroker   = "POWERSTRIP_BROKER"
	envHTTPAddr = "POWERSTRIP_HTTP"
	envDBPath   = "POWERSTRIP_DB"
)

func main() {
	configPath := flag.String("config", "/etc/powerstrip.yaml", "Config file path")
	tick := flag.Duration("tick", 0, "Metering period (0 = config file or 1s)")
	broker := flag.String("broker", "", `MQTT broker address ("off" disables, empty = env/config)`)
	httpAddr := flag.String("http", "", "HTTP/WebSocket address (empty = env/config or :80)")
	dbPath := flag.String("db", "", "SQLite database path (empty = env/config or powerstrip.db)")
	printState := flag.Bool("print-state", false, "Print current sensor readings and exit")

	flag.Parse()

	// Optional .env for development boxes; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	period := resolveTick(*tick, cfg.TickSeconds)
	brokerAddr := resolveBroker(*broker, os.Getenv(envBroker), cfg.Broker)
	addr := resolve(*httpAddr, os.Getenv(envHTTPAddr), cfg.HTTPAddr, ":80")
	db := resolve(*dbPath, os.Getenv(envDBPath), cfg.DBPath, "powerstrip.db")
	pins := relay.DefaultPins
	if len(cfg.RelayPins) == 4 {
		copy(pins[:], cfg.RelayPins)
	}
	addrs := sensor.DefaultAddrs
	if len(cfg.SensorAddrs) == 4 {
		copy(addrs[:], cfg.SensorAddrs)
	}

	if err := run(period, brokerAddr, addr, db, pins, addrs, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// resolve picks the first non-empty value: flag, env, config, default.
func resolve(flagVal, envVal, cfgVal, def string) string {
	for _, v := range []string{flagVal, envVal, cfgVal} {
		if v != "" {
			return v
		}
	}
	return def
}

// resolveBroker is resolve with an "off" escape hatch so a flag or env var
// can disable a broker the config file enables.
func resolveBroker(flagVal, envVal, cfgVal string) string {
	v := resolve(flagVal, envVal, cfgVal, "")
	if v == "off" {
		return ""
	}
	return v
}

func resolveTick(flagVal time.Duration, cfgSeconds int) time.Duration {
	if flagVal > 0 {
		return flagVal
	}
	if cfgSeconds > 0 {
		return time.Duration(cfgSeconds) * time.Second
	}
	return time.Second
}

func run(period time.Duration, broker, httpAddr, dbPath string, pins [4]int, addrs [4]uint16, printState bool) error {
	// Initialize sensors
	src, err := sensor.NewINA219Source(addrs)
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer src.Close()

	// Print state mode
	if printState {
		frame, err := src.ReadAll()
		if err != nil {
			return fmt.Errorf("read sensors: %w", err)
		}
		for i, r := range frame {
			if !r.Present {
				fmt.Printf("CH%d: absent\n", i+1)
				continue
			}
			fmt.Printf("CH%d: %.2fV %.3fA %.1fW\n", i+1, r.Voltage, r.Current, r.Voltage*r.Current)
		}
		return nil
	}

	// Initialize relays (all OFF)
	driver, err := relay.NewGPIODriver(pins)
	if err != nil {
		return fmt.Errorf("init relays: %w", err)
	}
	defer driver.Close()

	// Open the settings/notification store and restore configuration.
	// Relays always boot OFF with zeroed counters; only price, limits and
	// timer lengths survive a restart.
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctrl := core.NewController()
	if settings, ok, err := st.LoadSettings(); err != nil {
		log.Printf("load settings: %v (using defaults)", err)
	} else if ok {
		ctrl.Restore(settings)
		log.Printf("restored settings: price=%.2f", settings.UnitPrice)
	} else if err := st.SaveSettings(ctrl.Settings()); err != nil {
		log.Printf("seed settings: %v", err)
	}

	// Initialize MQTT
	var pub mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if broker != "" {
		real, err := mqtt.NewRealPublisher(broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		pub = real
		mqttStatus = real
	}
	defer pub.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:   period.Milliseconds(),
		Broker:   broker,
		HTTPAddr: httpAddr,
		DBPath:   dbPath,
	})
	tracker.Update(ctrl.Snapshot())

	// Start HTTP/WebSocket server
	commands := make(chan web.Command, 16)
	hub := web.NewHub(commands)
	srv := web.New(httpAddr, tracker, st, hub)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	defer srv.Shutdown(context.Background())
	log.Printf("http server listening on %s", httpAddr)

	if err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	log.Printf("started: tick=%v broker=%q http=%s db=%s", period, broker, httpAddr, dbPath)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &dispatcher{
		driver:  driver,
		pub:     pub,
		store:   st,
		hub:     hub,
		tracker: tracker,
	}
	return runLoop(ctrl, src, d, mqttStatus, time.Now, ticker.C, commands, sigCh)
}

// broadcaster fans a payload out to live WebSocket clients.
type broadcaster interface {
	Broadcast(payload []byte)
}

// stripStore is the slice of the persistence layer the loop needs.
type stripStore interface {
	SaveSettings(core.Settings) error
	AppendNotification(core.Event) error
	ClearNotifications() error
}

// dispatcher performs the external calls the pure core returns as data.
// Everything here is best-effort: a failed persist or publish is logged and
// never rolls back channel state; the next tick re-publishes everything.
type dispatcher struct {
	driver  relay.Driver
	pub     mqtt.Publisher
	store   stripStore
	hub     broadcaster
	tracker *status.Tracker
}

func (d *dispatcher) applySwitches(switches []core.Switch) {
	for _, sw := range switches {
		if err := d.driver.Set(sw.ID, sw.On); err != nil {
			log.Printf("relay %d: %v", sw.ID, err)
		}
	}
}

func (d *dispatcher) emitEvents(events []core.Event) {
	for _, ev := range events {
		log.Printf("notification: %s", ev.Text)
		if err := d.store.AppendNotification(ev); err != nil {
			log.Printf("persist notification: %v", err)
		}
		if payload, err := core.EncodeNotification(ev); err == nil {
			d.hub.Broadcast(payload)
		} else {
			log.Printf("encode notification: %v", err)
		}
		if err := d.pub.PublishNotification(ev); err != nil {
			log.Printf("publish notification: %v", err)
		}
	}
}

func (d *dispatcher) publishState(snap core.Snapshot) {
	d.tracker.Update(snap)
	if payload, err := core.EncodeState(snap); err == nil {
		d.hub.Broadcast(payload)
	} else {
		log.Printf("encode state: %v", err)
	}
	if err := d.pub.PublishState(snap); err != nil {
		log.Printf("publish state: %v", err)
	}
}

// runLoop is the single-threaded heart of the daemon. One goroutine owns
// the controller; ticks and commands are serialized through the select, so
// no tick ever observes a half-applied command.
func runLoop(ctrl *core.Controller, src sensor.Source, d *dispatcher, mqttStatus mqtt.ConnectionStatus, now func() time.Time, tick <-chan time.Time, commands <-chan web.Command, sig <-chan os.Signal) error {
	curY, curM, curD := now().Date()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := d.pub.PublishSystem(mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case cmd := <-commands:
			t := now()
			var res core.CommandResult
			switch cmd.Kind {
			case web.CmdRelay:
				res = ctrl.Relay(t, cmd.ID, cmd.On)
			case web.CmdSetTimer:
				res = ctrl.SetTimer(t, cmd.ID, cmd.Minutes)
			case web.CmdSetLimit:
				res = ctrl.SetLimit(t, cmd.ID, cmd.Seconds)
			case web.CmdSetPrice:
				res = ctrl.SetPrice(t, cmd.Price)
			case web.CmdClearNotifs:
				if err := d.store.ClearNotifications(); err != nil {
					log.Printf("clear notifications: %v", err)
				}
				res = core.CommandResult{Events: []core.Event{{Timestamp: t, Text: "Notifs cleared"}}}
			default:
				log.Printf("unknown command kind %q", cmd.Kind)
				continue
			}
			d.applySwitches(res.Switches)
			d.emitEvents(res.Events)
			if res.SettingsChanged {
				if err := d.store.SaveSettings(ctrl.Settings()); err != nil {
					log.Printf("save settings: %v", err)
				}
			}

		case <-tick:
			t := now()
			if y, m, day := t.Date(); y != curY || m != curM || day != curD {
				curY, curM, curD = y, m, day
				ctrl.ResetDaily()
				log.Printf("daily on-time counters reset")
			}

			var readings [core.NumChannels]core.Reading
			frame, err := src.ReadAll()
			if err != nil {
				// Treat a bus failure like all sensors absent this tick.
				log.Printf("sensor read error: %v", err)
			} else {
				for i, r := range frame {
					readings[i] = core.Reading{Voltage: r.Voltage, Current: r.Current, Present: r.Present}
				}
			}

			res := ctrl.Tick(t, readings)
			d.applySwitches(res.Switches)
			d.emitEvents(res.Events)
			if mqttStatus != nil {
				d.tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			d.publishState(res.Snapshot)
		}
	}
}
