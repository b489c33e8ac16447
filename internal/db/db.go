package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/plantdoctor/identity/internal/config"
)

// DuplicateEntry is the MySQL error number for a unique key violation.
const DuplicateEntry = 1062

// Schema is the user table expected by the MySQL repository.
const Schema = `
CREATE TABLE IF NOT EXISTS user (
	id              BINARY(16)   NOT NULL PRIMARY KEY,
	mobile          VARCHAR(20)  NOT NULL,
	first_name      VARCHAR(100) NOT NULL,
	last_name       VARCHAR(100) NOT NULL,
	birth_year      SMALLINT     NOT NULL,
	birth_month     TINYINT      NOT NULL,
	birth_day       TINYINT      NOT NULL,
	role            VARCHAR(16)  NOT NULL,
	pin_hash        VARCHAR(100) NOT NULL,
	verification_id VARCHAR(36)  NOT NULL,
	kyc_verified    BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_user_mobile (mobile)
);`

func DSN(cfg config.Database) (string, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return "", fmt.Errorf("time load location failed: %w", err)
	}

	conf := mysql.NewConfig()
	conf.Net = cfg.Net
	conf.Addr = cfg.Server
	conf.User = cfg.User
	conf.Passwd = cfg.Password
	conf.DBName = cfg.DBName
	conf.Timeout = cfg.Timeout
	conf.Loc = location
	conf.ParseTime = true

	return conf.FormatDSN(), nil
}

func New(cfg config.Database) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConnections)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConnections)

	if _, err := dbConn.Exec(Schema); err != nil {
		return nil, fmt.Errorf("apply schema failed: %w", err)
	}

	return dbConn, nil
}
