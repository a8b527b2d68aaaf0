package factory

import (
	"sync"

	"imagegate-service/internal/client"
	"imagegate-service/internal/config"
	"imagegate-service/internal/generation"
	redisrepo "imagegate-service/internal/repository/redis"
	"imagegate-service/internal/service"
	"imagegate-service/internal/tls"
	"imagegate-service/internal/util"
	"imagegate-service/internal/window"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Services
	counterStore     *redisrepo.CounterStore
	admissionService *service.AdmissionService
	auditService     *service.AuditService
	generator        generation.Generator

	closeOnce sync.Once
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	logger := util.Get()

	factory := &Factory{
		config: cfg,
	}

	redisClient, err := client.NewRedisClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	factory.redisClient = redisClient

	// Audit trail is optional; without brokers decisions are only logged
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := client.NewKafkaProducer(cfg, logger)
		if err != nil {
			factory.Close()
			return nil, err
		}
		factory.kafkaProducer = producer
		factory.auditService = service.NewAuditService(producer, cfg.Kafka.AuditTopic, logger)
	} else {
		util.Info("Kafka brokers not configured, admission audit trail disabled")
	}

	factory.counterStore = redisrepo.NewCounterStore(redisClient)
	factory.admissionService = service.NewAdmissionService(
		factory.counterStore,
		window.SystemClock(),
		cfg.Limits,
		logger,
	)

	if cfg.Generation.APIURL != "" && cfg.Generation.APIKey != "" {
		factory.generator = generation.NewClient(cfg.Generation)
		util.Info("Image generation enabled", util.String("model", cfg.Generation.Model))
	} else {
		factory.generator = generation.Disabled{}
		util.Info("Image generation not configured, running gate-only")
	}

	factory.tlsManager = tls.NewTLSManager(&tls.TLSConfig{
		EnableTLS:   cfg.Server.EnableTLS,
		AutoCert:    cfg.Server.AutoCert,
		Domain:      cfg.Server.Domain,
		CertFile:    cfg.Server.CertFile,
		KeyFile:     cfg.Server.KeyFile,
		AutoCertDir: cfg.Server.AutoCertDir,
		Email:       cfg.Server.Email,
	})

	util.Info("Factory initialized",
		util.String("environment", cfg.Environment),
		util.Int64("daily_limit", cfg.Limits.DailyLimit),
		util.Int64("per_minute_limit", cfg.Limits.PerMinuteLimit),
		util.Duration("cooldown", cfg.Limits.Cooldown),
	)

	return factory, nil
}

func (f *Factory) Config() *config.Config { return f.config }

func (f *Factory) TLSManager() *tls.TLSManager { return f.tlsManager }

func (f *Factory) RedisClient() *client.RedisClient { return f.redisClient }

func (f *Factory) AdmissionService() *service.AdmissionService { return f.admissionService }

func (f *Factory) AuditService() *service.AuditService { return f.auditService }

func (f *Factory) Generator() generation.Generator { return f.generator }

// Close shuts down all clients exactly once
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		if f.kafkaProducer != nil {
			_ = f.kafkaProducer.Close()
		}
		if f.redisClient != nil {
			_ = f.redisClient.Close()
		}
		util.Sync()
	})
}
