package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/dnsx2k/hmsbase/app/cmd/config"
	"github.com/dnsx2k/hmsbase/app/cmd/handlers"
	"github.com/dnsx2k/hmsbase/app/pkg/client"
	"github.com/dnsx2k/hmsbase/app/pkg/heartbeat"
	"github.com/dnsx2k/hmsbase/app/pkg/listener"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var appCfg config.Config
	help, err := conf.Parse("HMS", &appCfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			os.Exit(0)
		}
		fmt.Printf("parsing config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hb := heartbeat.New(logger, appCfg.Heartbeat.ClientTTL, appCfg.Heartbeat.CheckInterval)
	go hb.Run(ctx)

	hmsClient := client.New(appCfg.Name, appCfg.Exchange, appCfg.RoutingKeys,
		client.WithPingResponse(appCfg.EnablePing),
		client.WithLogger(logger),
		client.WithListeners(listener.Topic(client.PingRoutingKey, hb.Listener())),
	)

	if err = hmsClient.Connect(appCfg.RabbitConnectionString); err != nil {
		logger.Fatal("connecting client", zap.Error(err))
	}

	// HTTP

	router := gin.New()
	router.Use(gin.Recovery())
	handler := handlers.New(hmsClient, hb, logger)
	handler.RegisterRoute(router)

	srv := &http.Server{Addr: appCfg.HTTPAddress, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()

	// AMQP

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- hmsClient.StartConsuming(ctx)
	}()

	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptChan)

	shutdown(interruptChan, hmsClient, cancel, srv, consumeDone, logger, 10*time.Second)
}

type consumer interface {
	StopConsuming()
	Disconnect() error
}

// shutdown - waits for signal or consume loop exit, then stops consuming, http server and connection in that order
func shutdown(interruptChan <-chan os.Signal, hmsClient consumer, cancel context.CancelFunc, srv *http.Server, consumeDone <-chan error, logger *zap.Logger, timeout time.Duration) {
	select {
	case sig := <-interruptChan:
		logger.Info("got signal, stopping", zap.String("signal", sig.String()))
		// consume loop may not have started yet, cancel covers that
		hmsClient.StopConsuming()
		cancel()
		if err := <-consumeDone; err != nil {
			logger.Error("consuming stopped", zap.Error(err))
		}
	case err := <-consumeDone:
		if err != nil {
			logger.Error("consuming stopped", zap.Error(err))
		}
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	if err := hmsClient.Disconnect(); err != nil {
		logger.Error("disconnecting client", zap.Error(err))
	}

	logger.Info("service exiting")
}
