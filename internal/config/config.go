package config

import (
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/pkg/config"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()

	if cfg.StoreDriver == store.DriverMongo {
		config.MustNonEmpty(cfg.MongoURI, "MONGO_URI")
	} else {
		config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	}
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	return ServiceConfig{Config: cfg}
}

func (c ServiceConfig) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.StoreDriver,
		DatabaseURL: c.DatabaseURL,
		MongoURI:    c.MongoURI,
		MongoDB:     c.MongoDB,
	}
}

// MissingOptional lists unset settings that leave a feature disabled or on
// its fallback.
func (c ServiceConfig) MissingOptional() []string {
	return config.WarnIfEmpty(map[string]string{
		"KAFKA_BROKERS":  firstOrEmpty(c.KafkaBrokers),
		"ES_URL":         c.ESURL,
		"S3_BUCKET":      c.S3Bucket,
		"ADMIN_USERNAME": c.AdminUsername,
		"ADMIN_PASSWORD": c.AdminPassword,
	})
}

func firstOrEmpty(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
