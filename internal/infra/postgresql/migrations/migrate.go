package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createNotifications(),
		createPushSubscriptions(),
	})

	return m.Migrate()
}

func createNotifications() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_notifications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.NotificationModel{}); err != nil {
				return err
			}
			statements := []string{
				`ALTER TABLE notifications ADD CONSTRAINT chk_notifications_channel
					CHECK (channel IN ('EMAIL', 'SMS', 'IN_APP', 'PUSH_ANDROID'))`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications (status)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications (created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_send_at_due ON notifications (send_at) WHERE status = 'SCHEDULED'`,
				`CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
					BEGIN
						NEW.updated_at = now();
						RETURN NEW;
					END;
				$$ LANGUAGE plpgsql`,
				`CREATE TRIGGER trg_notifications_updated_at
					BEFORE UPDATE ON notifications
					FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,
			}
			for _, sql := range statements {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.NotificationModel{})
		},
	}
}

func createPushSubscriptions() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_push_subscriptions",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PushSubscriptionModel{}); err != nil {
				return err
			}
			statements := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_push_subscriptions_endpoint_arn ON push_subscriptions (endpoint_arn)`,
				`CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user_id ON push_subscriptions (user_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_push_subscriptions_user_token ON push_subscriptions (user_id, device_token)`,
				`CREATE TRIGGER trg_push_subscriptions_updated_at
					BEFORE UPDATE ON push_subscriptions
					FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,
			}
			for _, sql := range statements {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PushSubscriptionModel{})
		},
	}
}
