package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the persistence models owned by this service.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.PlanModel{},
		&models.OrderModel{},
		&models.SystemSettingModel{},
	}
}

// AutoMigrate syncs the schema from the gorm models. Development only;
// deployed databases go through the goose scripts.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
