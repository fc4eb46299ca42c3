package migrations

import (
	"github.com/crmkit/lead-capture/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_leads",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.LeadModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads (status)`,
					`CREATE INDEX IF NOT EXISTS idx_leads_source ON leads (source)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.LeadModel{})
			},
		},
		{
			ID: "000002_create_activities",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ActivityModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_activities_lead_id ON activities (lead_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ActivityModel{})
			},
		},
	})

	return m.Migrate()
}
