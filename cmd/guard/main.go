package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AegisGuard/internal/advisor"
	"AegisGuard/internal/driver"
	handlers "AegisGuard/internal/handler"
	"AegisGuard/internal/models"
	"AegisGuard/internal/protocol"
	"AegisGuard/internal/scoring"
	"AegisGuard/pkg/backup"
	"AegisGuard/pkg/cache"
	"AegisGuard/pkg/config"
	"AegisGuard/pkg/llm"
	"AegisGuard/pkg/logger"
	"AegisGuard/pkg/metrics"
	"AegisGuard/pkg/notification"
	"AegisGuard/pkg/scheduler"
	"AegisGuard/pkg/sse"
	"AegisGuard/pkg/util"
	"AegisGuard/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// incidentRetentionDays bounds the crime table; older incidents no longer
// influence scoring anyway.
const incidentRetentionDays = 90

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	log, err := logger.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatal("opening database failed", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	protocolMetrics := metrics.NewProtocolMetrics()
	scoringMetrics := metrics.NewScoringMetrics()

	// Threat scoring engine with every configured source.
	scoringCfg := scoring.DefaultConfig()
	if cfg.ThreatUpdateIntervalMs > 0 {
		scoringCfg.UpdateInterval = time.Duration(cfg.ThreatUpdateIntervalMs) * time.Millisecond
	}
	if cfg.ThreatSensitivity > 0 {
		scoringCfg.UserSensitivity = cfg.ThreatSensitivity
	}
	behavior := scoring.NewBehavioralSource()
	sources := []scoring.Source{
		scoring.NewCrimeSource(db),
		scoring.NewTimeOfDaySource(),
		scoring.NewLocationSafetySource(&scoring.StaticAreaProfiles{}),
		scoring.NewEnvironmentalSource(&scoring.FixedWeather{Cond: scoring.Conditions{Daylight: true, Visibility: 1}}),
		behavior,
	}
	if network, err := scoring.NewNetworkSource(cfg.GeoIPPath); err != nil {
		log.Warn("network source unavailable", zap.Error(err))
	} else {
		sources = append(sources, network)
	}
	engine := scoring.NewEngine(scoringCfg, sources, log, scoringMetrics)

	// Advisor: rule-based unless a model key is configured.
	var adv advisor.Advisor = advisor.NewRuleAdvisor()
	if cfg.LLMApiKey != "" {
		client := llm.NewOpenAIHandler(cfg.LLMApiKey, cfg.LLMBaseURL, advisor.SystemPrompt, logrus.New())
		adv = advisor.NewLLMAdvisor(client, cfg.LLMModel, log)
	}

	// Outbound channels: console in development, HTTP gateway when configured.
	var sender notification.Sender = &notification.Console{Log: log}
	var caller notification.Caller = &notification.Console{Log: log}
	if cfg.SMSGatewayURL != "" {
		gateway := notification.NewGateway(notification.GatewayConfig{
			SMSBaseURL:   cfg.SMSGatewayURL,
			VoiceBaseURL: cfg.VoiceGatewayURL,
			APIKey:       cfg.SMSGatewayKey,
		}, nil)
		sender = gateway
		caller = gateway
	}

	sharedCache, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
	})
	if err != nil {
		log.Fatal("cache init failed", zap.Error(err))
	}
	defer sharedCache.Close()

	machine := protocol.NewMachine(log, protocolMetrics)
	sched := scheduler.New()
	defer sched.Stop()

	location := driver.NewCachedLocation(driver.StaticLocation{})
	places := driver.NewCachedPlaces(driver.StaticPlaces{}, sharedCache, 5*time.Minute)

	d := driver.New(driver.Options{
		Machine:            machine,
		Engine:             engine,
		Advisor:            adv,
		Sched:              sched,
		DB:                 db,
		Log:                log,
		Metrics:            protocolMetrics,
		Behavior:           behavior,
		Sender:             sender,
		Caller:             caller,
		Navigator:          driver.NopNavigator{},
		Alarm:              driver.NopAlarm{},
		Recorder:           driver.NopRecorder{},
		Notifier:           driver.NopNotifier{},
		Location:           location,
		Places:             places,
		EmergencyNumber:    cfg.EmergencyNumber,
		EscalationInterval: scoringCfg.UpdateInterval,
	})

	// Nightly maintenance.
	cr := scheduler.NewCron(nil)
	if _, err := cr.Add("0 4 * * *", scheduler.FuncJob(func(ctx context.Context) {
		cutoff := time.Now().AddDate(0, 0, -incidentRetentionDays)
		if err := models.PruneIncidents(db, cutoff); err != nil {
			log.Warn("incident pruning failed", zap.Error(err))
		}
	})); err != nil {
		log.Fatal("registering cron failed", zap.Error(err))
	}
	if cfg.BackupDir != "" && (cfg.DBDriver == "" || cfg.DBDriver == "sqlite") {
		if _, err := cr.Add("30 4 * * *", scheduler.FuncJob(func(ctx context.Context) {
			target, err := backup.Execute(cfg.DSN, cfg.BackupDir, cfg.BackupKeep)
			if err != nil {
				log.Warn("database backup failed", zap.Error(err))
				return
			}
			log.Info("database backed up", zap.String("target", target))
		})); err != nil {
			log.Fatal("registering backup cron failed", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	hub := websocket.NewHub(logrus.New())
	sseHub := sse.NewHub()

	// Ambient score feed: re-score on the engine's cadence and push to every
	// connected client, episode or not.
	sched.Every("threat-broadcast", scoringCfg.UpdateInterval, scheduler.FuncJob(func(ctx context.Context) {
		loc, _ := location.Current(ctx)
		result := engine.Analyze(ctx, loc, false)
		if result == nil {
			return
		}
		hub.Broadcast("threat", result)
		sseHub.Broadcast("threat", result)
	}))

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	h := handlers.NewHandlers(db, d, machine, engine, hub, sseHub, log)
	h.Register(router)
	go h.PumpStateFeed()

	server := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
