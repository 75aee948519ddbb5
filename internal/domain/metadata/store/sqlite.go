package store

import (
	"context"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
)

type promptRuleModel struct {
	Property string `gorm:"primaryKey;size:128"`
	Prompt   string `gorm:"type:text"`
}

func (promptRuleModel) TableName() string {
	return "prompt_rules"
}

// SQLiteStore persists rules in a single-file database via gorm.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(conf config.SQLiteStoreConfig) (*SQLiteStore, error) {
	dsn := conf.DSN
	if dsn == "" {
		dsn = "data/prompts.db"
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "store.NewSQLiteStore", "create data dir", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.NewSQLiteStore", "open database", err)
	}
	if err := db.AutoMigrate(&promptRuleModel{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.NewSQLiteStore", "migrate schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rule metadata.PromptRule) error {
	model := promptRuleModel{Property: rule.Property, Prompt: rule.Prompt}
	err := s.db.WithContext(ctx).Save(&model).Error
	return errors.Wrap(errors.KindStorage, "store.Put", "save prompt rule", err)
}

func (s *SQLiteStore) Get(ctx context.Context, property string) (metadata.PromptRule, error) {
	var model promptRuleModel
	err := s.db.WithContext(ctx).First(&model, "property = ?", property).Error
	if err == gorm.ErrRecordNotFound {
		return metadata.PromptRule{}, ErrNotFound
	}
	if err != nil {
		return metadata.PromptRule{}, errors.Wrap(errors.KindStorage, "store.Get", "query prompt rule", err)
	}
	return metadata.PromptRule{Property: model.Property, Prompt: model.Prompt}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]metadata.PromptRule, error) {
	var models []promptRuleModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.List", "list prompt rules", err)
	}
	rules := make([]metadata.PromptRule, 0, len(models))
	for _, model := range models {
		rules = append(rules, metadata.PromptRule{Property: model.Property, Prompt: model.Prompt})
	}
	return rules, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, property string) error {
	err := s.db.WithContext(ctx).Delete(&promptRuleModel{}, "property = ?", property).Error
	return errors.Wrap(errors.KindStorage, "store.Remove", "delete prompt rule", err)
}

func (s *SQLiteStore) Close(_ context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.Close", "unwrap sql db", err)
	}
	return db.Close()
}
