package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"servoap/ap"
	"servoap/console"
	"servoap/indicator"
	"servoap/mqtt"
	"servoap/pwm"
	"servoap/rotary"
	"servoap/servo"
	"servoap/web"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	logger    *zap.SugaredLogger
	pwm       pwm.Channel
	servo     *servo.Driver
	indicator indicator.Indicator
	mqtt      *mqtt.Client
	web       *web.Server
	ap        *ap.AccessPoint
	console   *console.Console
	rotary    *rotary.Rotary
	jobs      chan func()
	ctx       context.Context
	cancel    context.CancelFunc

	statusMu  sync.Mutex
	busy      bool
	connected bool
}

func main() {
	fmt.Printf("servoap build %s\n", myBuild)

	neutral := flag.Bool("neutral", false, "Drive the servo to neutral and exit")
	cfgfile := flag.String("cfg", "servoap.cfg", "Config file")
	flag.Parse()

	cfg, err := LoadConfig(*cfgfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	base, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer base.Sync()
	logger := base.Sugar()

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan func(), 8),
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize servo PWM output
	app.pwm, err = pwm.New(cfg.Servo, logger.Named("pwm"))
	if err != nil {
		logger.Fatalf("Init pwm: %v", err)
	}

	// Initialize indicator (LEDs, neopixels)
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		logger.Fatalf("Init indicator: %v", err)
	}
	app.showStatus()

	app.servo = servo.New(app.pwm, clock.New(), logger.Named("servo"), servo.Handlers{
		OnDuty: app.publishDuty,
		OnBusy: app.onBusy,
	})
	app.servo.Stop()

	if *neutral {
		logger.Info("Servo at neutral")
		app.pwm.Release()
		return
	}

	// Bring up the access point before the server clients reach it through
	app.ap, err = ap.New(cfg.AP, logger.Named("ap"))
	if err != nil {
		logger.Fatalf("Init access point: %v", err)
	}
	if err := app.ap.Start(ctx); err != nil {
		logger.Fatalf("Start access point: %v", err)
	}

	// Initialize MQTT
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, logger.Named("mqtt"), mqtt.Handlers{
		OnConnect:    app.onMQTTConnect,
		OnDisconnect: app.onMQTTDisconnect,
		OnRotate:     app.onRemoteRotate,
		OnDuty:       app.onRemoteDuty,
		OnStop:       app.onRemoteStop,
	})
	if err != nil {
		logger.Fatalf("Init MQTT: %v", err)
	}

	// Initialize rotary encoder if configured
	app.rotary, err = rotary.New(cfg.Rotary, logger.Named("rotary"), rotary.Handlers{
		OnTurn:  app.onKnobTurn,
		OnPress: app.onKnobPress,
	})
	if err != nil {
		logger.Fatalf("Init rotary: %v", err)
	}
	if app.rotary != nil {
		logger.Infof("Rotary encoder initialized (CLK=%d, DT=%d, BTN=%d)",
			cfg.Rotary.CLKPin, cfg.Rotary.DTPin, cfg.Rotary.ButtonPin)
	}

	// Initialize console command sources if configured
	app.console, err = console.New(cfg.Console, app.runCommand, logger.Named("console"))
	if err != nil {
		logger.Fatalf("Init console: %v", err)
	}
	if app.console != nil {
		app.console.Start(ctx)
	}

	app.web = web.New(cfg.HTTP, app.servo, logger.Named("http"))

	// Start background goroutines
	go app.jobRunner()
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			logger.Errorf("MQTT connect: %v", err)
		}
	}()
	go app.mqtt.RunPing(ctx, 120*time.Second)
	go func() {
		if err := app.web.ListenAndServe(); err != nil {
			logger.Fatalf("HTTP server: %v", err)
		}
	}()

	logger.Info("Servo control system is ready!")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down...")
	app.shutdown()
	logger.Info("Shutdown complete")
}

func newLogger(cfg LogConfig) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func (app *App) shutdown() {
	// A rotation in progress keeps its handler until it completes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.web.Shutdown(shutdownCtx); err != nil {
		app.logger.Warnf("HTTP shutdown: %v", err)
	}

	app.cancel()

	if app.console != nil {
		app.console.Wait()
		app.console.Close()
	}
	if app.rotary != nil {
		app.rotary.Release()
	}
	app.mqtt.Disconnect()

	app.servo.Stop()
	if err := app.pwm.Release(); err != nil {
		app.logger.Warnf("Release pwm: %v", err)
	}
	app.indicator.Release()
	app.ap.Wait()
}

// jobRunner runs queued servo work one job at a time so callbacks from the
// MQTT router and GPIO event handlers never block on a rotation.
func (app *App) jobRunner() {
	for {
		select {
		case <-app.ctx.Done():
			return
		case job := <-app.jobs:
			job()
		}
	}
}

// enqueue queues job and reports whether there was room for it.
func (app *App) enqueue(job func()) bool {
	select {
	case app.jobs <- job:
		return true
	default:
		app.logger.Warn("Servo job queue full, command dropped")
		return false
	}
}

func (app *App) onBusy(busy bool) {
	app.statusMu.Lock()
	app.busy = busy
	app.statusMu.Unlock()
	app.showStatus()
}

func (app *App) setConnected(connected bool) {
	app.statusMu.Lock()
	app.connected = connected
	app.statusMu.Unlock()
	app.showStatus()
}

// showStatus drives the indicator from the combined state. A running
// sequence wins over a lost broker connection.
func (app *App) showStatus() {
	app.statusMu.Lock()
	defer app.statusMu.Unlock()

	switch {
	case app.busy:
		app.indicator.Busy()
	case !app.connected:
		app.indicator.ConnectionLost()
	default:
		app.indicator.Idle()
	}
}

// runCommand executes a console command on the calling goroutine.
func (app *App) runCommand(cmd console.Command) {
	switch cmd.Kind {
	case console.KindRotate:
		app.servo.Rotate(cmd.Direction, cmd.Turns)
	case console.KindDuty:
		app.servo.HoldDuty(cmd.Duty)
	case console.KindStop:
		app.servo.Stop()
	}
}

// onKnobTurn queues one turn per detent.
func (app *App) onKnobTurn(delta int) {
	dir := servo.Clockwise
	if delta < 0 {
		dir = servo.CounterClockwise
	}
	app.enqueue(func() { app.servo.Rotate(dir, 1) })
}

func (app *App) onKnobPress() {
	app.enqueue(app.servo.Stop)
}
