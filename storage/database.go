package storage

import (
	"content-catalog-server/models"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
		&models.AuditLog{},
	)

	// A title's year may never exceed the current calendar year. The request
	// validator checks the same thing; the constraint is the standing guard.
	db.Exec("ALTER TABLE titles DROP CONSTRAINT IF EXISTS chk_titles_year_not_future;")
	db.Exec("ALTER TABLE titles ADD CONSTRAINT chk_titles_year_not_future CHECK (year <= date_part('year', now()));")

	// "me" is routed as the self-profile alias and can never name an account.
	db.Exec("ALTER TABLE users DROP CONSTRAINT IF EXISTS chk_users_username_not_me;")
	db.Exec("ALTER TABLE users ADD CONSTRAINT chk_users_username_not_me CHECK (username <> 'me');")
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
