package repo

import (
	"github.com/dipwatch/dip-agent/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Signal{})
}
