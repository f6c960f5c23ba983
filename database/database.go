package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"commerce-sim/config"
)

var DB *sqlx.DB

// Orders and customers are stored as JSON documents. The scalar columns
// exist for indexing and listing.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id           VARCHAR(64) NOT NULL PRIMARY KEY,
		order_number INT NOT NULL,
		customer_id  VARCHAR(64) NULL,
		created_at   VARCHAR(64) NOT NULL,
		document     JSON NOT NULL,
		INDEX idx_orders_customer (customer_id),
		INDEX idx_orders_number (order_number)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id       VARCHAR(64) NOT NULL PRIMARY KEY,
		document JSON NOT NULL
	)`,
}

// InitDB opens the MySQL pool and creates the schema.
func InitDB(cfg *config.Config) error {
	db, err := sqlx.Connect("mysql", cfg.DSN())
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return err
		}
	}

	DB = db
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("Connected to MySQL")
	return nil
}

func CloseDB() {
	if DB == nil {
		return
	}
	if err := DB.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing MySQL connection")
		return
	}
	log.Info().Msg("MySQL connection closed")
}
