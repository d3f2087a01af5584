package migration

import (
	"github.com/almubaDev/apiTN/internal/config"
	"github.com/almubaDev/apiTN/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The embedded migrator targets postgres; other dialects manage
		// schema out of band (tests create it inline).
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		return seed.EnsureCatalog(conn)
	}),
)
