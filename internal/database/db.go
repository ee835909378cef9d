package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/carshare-web/internal/config"
)

// Open connects to the MySQL database that holds browser sessions and
// verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Pass
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	dc.DBName = cfg.Name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps expiry checks consistent
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings. Session reads are short point lookups.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
