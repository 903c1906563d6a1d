package postgres

import (
	"context"

	"authbase/internal/errors"
	"authbase/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// uuidV7Function backs the uuid_generate_v7() column defaults on servers without a native v7 generator.
const uuidV7Function = `
CREATE OR REPLACE FUNCTION uuid_generate_v7() RETURNS uuid AS $$
	SELECT encode(
		set_bit(
			set_bit(
				overlay(uuid_send(gen_random_uuid())
					placing substring(int8send(floor(extract(epoch FROM clock_timestamp()) * 1000)::bigint) FROM 3)
					FROM 1 FOR 6),
				52, 1),
			53, 1),
		'hex')::uuid;
$$ LANGUAGE SQL VOLATILE`

// Migrate brings the users and login_history tables up to the current models.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	if err := tx.Exec(uuidV7Function).Error; err != nil {
		return errors.Wrap(err, "failed to install uuid_generate_v7")
	}

	if err := tx.AutoMigrate(&model.UserModel{}, &model.LoginHistoryModel{}); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}

	return nil
}
