package ioc

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	type Config struct {
		SQLitePath string `mapstructure:"sqlite_path"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("storage", &cfg); err != nil {
		panic(err)
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "./data/signals.db"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		panic(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	return db
}
