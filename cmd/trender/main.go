package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ostr00000/overwatch/internal/common"
	"github.com/ostr00000/overwatch/internal/render"
	"github.com/ostr00000/overwatch/internal/repository"
	"github.com/ostr00000/overwatch/internal/trender"
	"github.com/ostr00000/overwatch/internal/trender/configuration"
)

const CustomConfigLocation string = "config"

func init() {
	pflag.String(CustomConfigLocation, "", "Fully qualified path to application configuration file")
	pflag.Parse()
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()

	var config configuration.TrenderConfig
	userSpecifiedConfig := viper.GetString(CustomConfigLocation)
	common.LoadConfig(&config, "./config/trender", userSpecifiedConfig)

	log.Info("Starting...")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
	defer shutdownMetricServer()

	db := redis.NewUniversalClient(&config.Redis)
	defer db.Close()

	store := repository.NewRedisTrendRepository(db)
	sink := render.NewFileSink(config.Trending.DirPrefix, config.Trending.ImageExtension)
	processor, err := trender.NewProcessor(&config, store, render.NewChartRenderer(), sink)
	if err != nil {
		log.Fatalf("Failed to start processor: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stopSignal
		log.Info("Shutting down...")
		cancel()
	}()
	processor.Run(ctx)
}
