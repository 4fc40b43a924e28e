package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/bidback/position_engine/internal/infrastructure/logger"
	"github.com/bidback/position_engine/internal/infrastructure/storage"
	"github.com/bidback/position_engine/internal/usecase"
	"github.com/bidback/position_engine/internal/web"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type tierConfig struct {
	Label              string   `yaml:"label"`
	LowerBound         float64  `yaml:"lower_bound"`
	UpperBound         *float64 `yaml:"upper_bound"` // omit for the unbounded top tier
	StopLossPct        float64  `yaml:"stop_loss_pct"`
	ProfitTarget1Pct   *float64 `yaml:"profit_target1_pct"`
	ProfitTarget2Pct   float64  `yaml:"profit_target2_pct"`
	MaxHoldDays        int      `yaml:"max_hold_days"`
	PositionMultiplier float64  `yaml:"position_multiplier"`
}

type Config struct {
	Server struct {
		Port           int `yaml:"port"`
		PushIntervalMs int `yaml:"push_interval_ms"`
	} `yaml:"server"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Calendar struct {
		Years []int `yaml:"years"`
	} `yaml:"calendar"`
	Portfolio struct {
		BaseAllocation float64 `yaml:"base_allocation"`
	} `yaml:"portfolio"`
	Jobs struct {
		ReassessCron string `yaml:"reassess_cron"`
	} `yaml:"jobs"`
	// Tiers overrides the built-in VIX exit-rule table when non-empty.
	Tiers []tierConfig `yaml:"tiers"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildTierTable(cfg *Config) (*usecase.TierTable, error) {
	if len(cfg.Tiers) == 0 {
		return usecase.DefaultTierTable(), nil
	}
	tiers := make([]domain.VixTier, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		tier := domain.VixTier{
			Label:              t.Label,
			LowerBound:         t.LowerBound,
			UpperBound:         math.Inf(1),
			StopLossPct:        t.StopLossPct,
			ProfitTarget2Pct:   t.ProfitTarget2Pct,
			MaxHoldDays:        t.MaxHoldDays,
			PositionMultiplier: t.PositionMultiplier,
		}
		if t.UpperBound != nil {
			tier.UpperBound = *t.UpperBound
		}
		if t.ProfitTarget1Pct != nil {
			tier.HasProfitTarget1 = true
			tier.ProfitTarget1Pct = *t.ProfitTarget1Pct
		}
		tiers = append(tiers, tier)
	}
	return usecase.NewTierTable(tiers)
}

func main() {
	// Local overrides (.env is optional)
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbPath := cfg.Database.Path
	if envPath := os.Getenv("DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	years := cfg.Calendar.Years
	if len(years) == 0 {
		now := time.Now().Year()
		years = []int{now, now + 1}
	}
	calendar := usecase.NewMarketCalendar(years...)
	log.Info("Market calendar loaded", zap.Ints("years", years))

	tiers, err := buildTierTable(cfg)
	if err != nil {
		log.Fatal("Invalid tier table override", zap.Error(err))
	}

	svc := usecase.NewPlannerService(store, store, tiers, calendar, log)

	server := web.NewServer(
		cfg.Server.Port,
		svc,
		cfg.Portfolio.BaseAllocation,
		time.Duration(cfg.Server.PushIntervalMs)*time.Millisecond,
		log,
	)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	// Scheduled deterioration sweep over open positions.
	scheduler := cron.New()
	if spec := cfg.Jobs.ReassessCron; spec != "" {
		_, err := scheduler.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			assessments, err := svc.ReassessOpenPositions(ctx)
			if err != nil {
				log.Error("Scheduled reassessment failed", zap.Error(err))
				return
			}
			log.Info("Scheduled reassessment done", zap.Int("positions", len(assessments)))
		})
		if err != nil {
			log.Fatal("Invalid reassess cron spec", zap.Error(err))
		}
		scheduler.Start()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
}
