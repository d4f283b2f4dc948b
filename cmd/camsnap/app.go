package main

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
	"github.com/mooglejp/atomcam_tools/camsnap/internal/config"
	"github.com/mooglejp/atomcam_tools/camsnap/internal/mqtt"
)

// app bundles what every command needs: config, logger and the cameras
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	stdLog   *log.Logger
	manager  *camera.Manager
	notifier *mqtt.Notifier
}

func newApp() (*app, error) {
	logger, err := newLogger(viper.GetString("log_level"), viper.GetBool("debug"))
	if err != nil {
		return nil, err
	}

	configPath := viper.GetString("config")
	logger.Debug("Loading configuration", zap.String("path", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	debugLog, err := zap.NewStdLogAt(logger, zapcore.DebugLevel)
	if err != nil {
		return nil, err
	}
	warnLog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}

	manager := camera.NewManager(camera.NewFactory(debugLog), warnLog)
	added := manager.AddCameraRecords(cfg.Cameras)
	logger.Info("Configuration loaded",
		zap.Int("cameras", added),
		zap.Int("configured", len(cfg.Cameras)),
		zap.Strings("brands", manager.GetAvailableBrands()))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		stdLog:  zap.NewStdLog(logger),
		manager: manager,
	}

	if cfg.MQTT.Broker != "" {
		notifier, err := mqtt.NewNotifier(cfg.MQTT, warnLog)
		if err != nil {
			// Notifications are optional; captures still work without them
			logger.Warn("MQTT notifications disabled", zap.Error(err))
		} else {
			manager.AddObserver(notifier)
			a.notifier = notifier
			logger.Info("MQTT notifications enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.Topic))
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	_ = a.logger.Sync()
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	return zcfg.Build()
}
