package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "garage_door/docs"
	"garage_door/internal/config"
	"garage_door/internal/gpio"
	"garage_door/internal/handlers"
	"garage_door/internal/logger"
	"garage_door/internal/notify"
	"garage_door/internal/repository"
	"garage_door/internal/repository/db"
	"garage_door/internal/server"
	"garage_door/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// run wires the service together and blocks until ctx is canceled or the
// HTTP server fails. Any error before the monitor starts is fatal.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrStartupFatal, err)
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	log.Infow("config_loaded", "file", cfg.File, "gpio", cfg.GPIO.Driver, "store", cfg.Store.Driver, "tls", cfg.TLS.Enabled(), "version", version)

	authHash, err := cfg.HashAuthKey()
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrStartupFatal, err)
	}

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrStartupFatal, err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			log.Errorw("store_close_failed", "err", cerr)
		}
	}()

	door, err := openDoor(cfg, log)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrStartupFatal, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher, closeNotifiers := openNotifier(ctx, cfg, log)
	defer closeNotifiers()
	go dispatcher.Run(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	monitor, err := service.NewMonitor(ctx, service.MonitorConfig{
		Name:     cfg.Name,
		Location: cfg.Location,
		Metrics:  service.NewMetrics(reg),
	}, door, dispatcher, store, service.NewCommandChannel(cfg.Commands.Timeout), log.Named("monitor"))
	if err != nil {
		return err
	}

	services := service.NewService(monitor)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		services.Run(ctx, cfg.Tick)
	}()

	if cfg.LogLevel != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	apiHandler := handlers.NewHandler(services, authHash, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log.Named("http"))

	srv := &server.Server{}
	serveErr := runHTTPServer(srv, cfg, apiHandler.InitRoutes(), log)

	select {
	case <-ctx.Done():
		log.Infow("shutting_down")
	case err = <-serveErr:
		log.Errorw("http_server_failed", "err", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Errorw("server_forced_to_shutdown", "err", serr)
	}
	<-monitorDone
	return err
}

func openStore(cfg *config.Config, log *logger.Logger) (repository.SettingsStore, func() error, error) {
	log.Infow("settings_store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	if cfg.Store.Driver == config.StoreYAML {
		return repository.NewFileRepository(cfg.Store.Path).Settings, func() error { return nil }, nil
	}
	conn, err := db.InitDB(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRepository(conn).Settings, conn.Close, nil
}

func openDoor(cfg *config.Config, log *logger.Logger) (service.Door, error) {
	hold := gpio.RelayHold(cfg.Relay.Hold)
	if cfg.GPIO.Driver == config.DriverSim {
		log.Warnw("gpio_simulated", "travel_time", cfg.GPIO.TravelTime, "hold", hold)
		return gpio.NewSimulator(false, cfg.GPIO.TravelTime, hold), nil
	}
	return gpio.OpenPeriph(cfg.GPIO.SensorPin, cfg.GPIO.RelayPin, hold, log.Named("gpio"))
}

// openNotifier builds the dispatcher. A broker that cannot be reached is
// logged and left out: notifications are best effort.
func openNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (*notify.Dispatcher, func()) {
	nlog := log.Named("notify")
	senders := []notify.Sender{notify.NewLogSender(nlog)}
	closers := []func(){}

	if cfg.Notify.FCM.Enabled {
		senders = append(senders, notify.NewFCM(notify.FCMConfig{
			URL:             cfg.Notify.FCM.URL,
			Key:             cfg.Notify.FCM.Key,
			BreakerFailures: cfg.Notify.Breaker.Failures,
			BreakerOpenFor:  cfg.Notify.Breaker.OpenFor,
		}, nil))
	}
	if cfg.Notify.MQTT.Enabled {
		m, err := notify.DialMQTT(ctx, notify.MQTTConfig{
			Broker:   cfg.Notify.MQTT.Broker,
			ClientID: cfg.Notify.MQTT.ClientID,
			User:     cfg.Notify.MQTT.User,
			Password: cfg.Notify.MQTT.Password,
			Topic:    cfg.Notify.MQTT.Topic,
		}, nlog)
		if err != nil {
			nlog.Errorw("mqtt_disabled", "err", errors.Join(notify.ErrNotification, err))
		} else {
			senders = append(senders, m)
			closers = append(closers, m.Close)
		}
	}

	d := notify.NewDispatcher(nlog, cfg.Notify.QueueSize, cfg.Notify.Timeout, senders...)
	return d, func() {
		for _, c := range closers {
			c()
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine; the returned
// channel receives its error if it stops on its own.
func runHTTPServer(srv *server.Server, cfg *config.Config, handler http.Handler, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	writeTimeout := cfg.Commands.Timeout + gpio.RelayHold(cfg.Relay.Hold) + 5*time.Second
	go func() {
		var err error
		if cfg.TLS.Enabled() {
			log.Infow("serving_https", "port", cfg.Port)
			err = srv.RunTLS(cfg.Port, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler, writeTimeout)
		} else {
			log.Warnw("serving_plain_http", "port", cfg.Port)
			err = srv.Run(cfg.Port, handler, writeTimeout)
		}
		if err != nil {
			errc <- err
		}
	}()
	return errc
}
