package database

import (
	"fmt"
	"log"
	"time"

	"mooc_backend/internal/config"
	"mooc_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 唯一索引冲突统一转换为 gorm.ErrDuplicatedKey，报名去重依赖该约定
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if ShouldMigrate(cfg) {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// ShouldMigrate release 模式下仅在显式传入 -migrate / -migrate-only 时迁移，
// 其余模式启动即迁移
func ShouldMigrate(cfg *config.Config) bool {
	return cfg.ForceMigrate || cfg.Server.Mode != "release"
}

// Migrate 执行表结构迁移并初始化默认数据
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Material{},
		&model.Enrollment{},
		&model.Announcement{},
		&model.Comment{},
		&model.PasswordReset{},
	)
	if err != nil {
		return err
	}

	// 用户表为空时创建默认管理员，首次部署后应立即修改密码
	var count int64
	db.Model(&model.User{}).Count(&count)
	if count == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin123456"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := &model.User{
			Name:      "Administrator",
			Email:     "admin@mooc.local",
			Password:  string(hashed),
			Role:      model.Admin,
			LastLogin: time.Now(),
			LastSeen:  time.Now(),
		}
		if err := db.Create(admin).Error; err != nil {
			return err
		}
		log.Println("Default admin account created: admin@mooc.local")
	}

	return nil
}
