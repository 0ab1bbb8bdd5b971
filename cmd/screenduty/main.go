// Command screenduty decides when a wall-mounted display should be on.
// Presence comes from a PIR sensor and/or MQTT occupancy messages; the
// decision is applied by running configured shell commands.
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

	"github.com/mfeltham/screenduty/internal/actuator"
	"github.com/mfeltham/screenduty/internal/config"
	"github.com/mfeltham/screenduty/internal/gpio"
	"github.com/mfeltham/screenduty/internal/logic"
	"github.com/mfeltham/screenduty/internal/metrics"
	"github.com/mfeltham/screenduty/internal/mqtt"
	"github.com/mfeltham/screenduty/internal/status"
	"github.com/mfeltham/screenduty/internal/web"
)

// pulseDuration is how long a manual wake pulse asserts presence before
// it self-expires.
const pulseDuration = 100 * time.Millisecond

func main() {
	configPath := flag.String("config", "/etc/screenduty/config.yaml", "Path to YAML configuration")
	httpAddr := flag.String("http", "", "Override HTTP status address (empty uses config)")
	printState := flag.Bool("print-state", false, "Evaluate the schedule once, print the decision and exit")

	flag.Parse()

	if err := run(*configPath, *httpAddr, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, httpAddr string, printState bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}

	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	engine := logic.New(engineCfg)

	// Print state mode: one evaluation pass against the wall clock, no
	// signals yet.
	if printState {
		res := engine.ScheduleTick(time.Now())
		fmt.Printf("phase: %s, screen: %s\n", res.Snapshot.Phase(), onOff(res.Snapshot.ScreenOn))
		return nil
	}

	// Initialize the PIR watcher unless running bus-only
	var sensorEvents <-chan gpio.Event
	if logic.Mode(cfg.Mode) != logic.ModeBus {
		watcher, err := gpio.NewLineWatcher(
			cfg.Sensor.Chip,
			cfg.Sensor.Pin,
			cfg.Sensor.ActiveLow,
			time.Duration(cfg.Sensor.DebounceMs)*time.Millisecond,
		)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer watcher.Close()
		sensorEvents = watcher.Events()
		log.Printf("watching %s pin %d (debounce %dms)", cfg.Sensor.Chip, cfg.Sensor.Pin, cfg.Sensor.DebounceMs)
	}

	occupancy := make(chan bool, 16)
	wake := make(chan struct{}, 4)

	// Initialize MQTT when a broker is configured
	var bus mqtt.Bus
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.Connect(mqtt.Options{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			OccupancyTopic: cfg.MQTT.OccupancyTopic,
			OccupancyField: cfg.MQTT.OccupancyField,
			WakeTopic:      cfg.MQTT.WakeTopic,
			StateTopic:     cfg.MQTT.StateTopic,
			SystemTopic:    cfg.MQTT.SystemTopic,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer client.Close()

		if cfg.MQTT.OccupancyTopic != "" {
			if err := client.SubscribeOccupancy(func(present bool) {
				occupancy <- present
			}); err != nil {
				return fmt.Errorf("subscribe occupancy: %w", err)
			}
		}
		if cfg.MQTT.WakeTopic != "" {
			if err := client.SubscribeWake(func() {
				select {
				case wake <- struct{}{}:
				default:
				}
			}); err != nil {
				return fmt.Errorf("subscribe wake: %w", err)
			}
		}
		bus = client
		log.Printf("connected to broker %s", cfg.MQTT.Broker)
	}

	screen := actuator.New(cfg.OnCommand, cfg.OffCommand)

	tracker := status.NewTracker(time.Now(), status.Config{
		Mode:              cfg.Mode,
		CounterTimeout:    cfg.CounterTimeout,
		AutoDimmer:        cfg.AutoDimmer,
		AutoDimmerTimeout: cfg.AutoDimmerTimeout,
		Broker:            cfg.MQTT.Broker,
		OccupancyTopic:    cfg.MQTT.OccupancyTopic,
		HTTPAddr:          cfg.HTTP.Addr,
	})

	if bus != nil {
		startup := mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "STARTUP",
			Retained:  true,
		}
		if err := bus.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: mode=%s counter=%ds dimmer=%v", cfg.Mode, cfg.CounterTimeout, cfg.AutoDimmer)

	scheduleTicker := time.NewTicker(time.Second)
	defer scheduleTicker.Stop()
	countdownTicker := time.NewTicker(time.Second)
	defer countdownTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(engine, screen, bus, tracker, sensorEvents, occupancy, wake,
		scheduleTicker.C, countdownTicker.C, time.Now, sigCh)
}

// runLoop serializes every input onto the decision engine. Nothing else
// ever touches the engine; handlers on other goroutines only post to the
// channels selected here.
func runLoop(
	engine *logic.Engine,
	screen actuator.Screen,
	bus mqtt.Bus,
	tracker *status.Tracker,
	sensorEvents <-chan gpio.Event,
	occupancy <-chan bool,
	wake <-chan struct{},
	scheduleTick, countdownTick <-chan time.Time,
	now func() time.Time,
	sig <-chan os.Signal,
) error {
	pulseExpiry := make(chan int, 4)

	apply := func(res logic.Result) {
		if res.Screen != nil {
			on := *res.Screen
			log.Printf("screen -> %s (phase=%s counter=%ds)", onOff(on), res.Snapshot.Phase(), res.Snapshot.Counter)
			screen.Apply(on)
			tracker.CountSwitch(on)
		}
		tracker.Update(res.Snapshot)
		metrics.ObserveSnapshot(res.Snapshot)
		if bus != nil {
			tracker.SetMQTTConnected(bus.IsConnected())
			// Fire and forget: a slow broker must not stall the loop.
			go func(snap logic.Snapshot) {
				if err := bus.PublishState(snap); err != nil {
					log.Printf("state publish error: %v", err)
				}
			}(res.Snapshot)
		}
	}

	// First pass drives the display to a known state before any input.
	apply(engine.ScheduleTick(now()))

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
			if bus != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName,
					Retained:  true,
				}
				if err := bus.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-scheduleTick:
			apply(engine.ScheduleTick(now()))

		case <-countdownTick:
			apply(engine.CountdownTick(now()))

		case ev, ok := <-sensorEvents:
			if !ok {
				sensorEvents = nil
				continue
			}
			switch ev.Kind {
			case gpio.Motion:
				apply(engine.SensorMotion(now()))
			case gpio.Clear:
				apply(engine.SensorClear(now()))
			case gpio.Fault:
				log.Printf("sensor fault, reading as absent: %v", ev.Err)
				metrics.SensorFaults.Inc()
				tracker.CountSensorFault()
				apply(engine.SensorFault(now()))
			}

		case present := <-occupancy:
			apply(engine.BusOccupancy(present, now()))

		case <-wake:
			res, gen := engine.WakePulse(now())
			tracker.CountWake()
			time.AfterFunc(pulseDuration, func() {
				pulseExpiry <- gen
			})
			apply(res)

		case gen := <-pulseExpiry:
			apply(engine.PulseExpired(gen, now()))
		}
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
