package core

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/km-arc/go-spf/framework/config"
	"github.com/km-arc/go-spf/framework/container"
	"github.com/km-arc/go-spf/framework/reflection"
)

var (
	ErrNoDatabase       = errors.New("no mysql database is configured")
	ErrIncompleteConfig = errors.New("there is missing required information from the database configuration")
)

// MySQL is one entry of the config's databases.mysql list.
type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

var mysqlRequired = []string{"host", "port", "username", "password", "database"}

// Connector opens a database handle. sqlx.Connect is used when none is given.
type Connector func(driver, dsn string) (*sqlx.DB, error)

// Database hands out MySQL connections described in the config, one pooled
// handle per configured entry.
type Database struct {
	config  *config.Configuration
	connect Connector

	mu    sync.Mutex
	conns map[int]*sqlx.DB
}

func NewDatabase(cfg *config.Configuration, connect Connector) *Database {
	if connect == nil {
		connect = sqlx.Connect
	}
	return &Database{config: cfg, connect: connect, conns: make(map[int]*sqlx.DB)}
}

// MySQLConfig returns entry id of databases.mysql. Every field must be
// present in the config; password may be empty.
func (d *Database) MySQLConfig(id int) (MySQL, error) {
	list, ok := d.config.Get("databases.mysql").([]any)
	if !ok || len(list) == 0 {
		return MySQL{}, fmt.Errorf("core: %w", ErrNoDatabase)
	}
	if id < 0 || id >= len(list) {
		return MySQL{}, fmt.Errorf("core: mysql database %d: %w", id, ErrNoDatabase)
	}
	prefix := "databases.mysql." + strconv.Itoa(id) + "."
	for _, field := range mysqlRequired {
		if v, ok := d.config.Lookup(prefix + field); !ok || v == nil {
			return MySQL{}, fmt.Errorf("core: mysql database %d: %w: %s", id, ErrIncompleteConfig, field)
		}
	}

	var all []MySQL
	if err := d.config.Decode("databases.mysql", &all); err != nil {
		return MySQL{}, fmt.Errorf("core: %w", err)
	}
	return all[id], nil
}

// DSN formats the go-sql-driver DSN for entry id.
func (d *Database) DSN(id int) (string, error) {
	db, err := d.MySQLConfig(id)
	if err != nil {
		return "", err
	}
	cfg := mysql.NewConfig()
	cfg.User = db.Username
	cfg.Passwd = db.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
	cfg.DBName = db.Database
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// MySQLConnection returns the handle for entry id, opening it on first use.
func (d *Database) MySQLConnection(id int) (*sqlx.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if db, ok := d.conns[id]; ok {
		return db, nil
	}
	dsn, err := d.DSN(id)
	if err != nil {
		return nil, err
	}
	db, err := d.connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("core: connect mysql database %d: %w", id, err)
	}
	d.conns[id] = db
	return db, nil
}

// Close closes every opened handle.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for id, db := range d.conns {
		errs = append(errs, db.Close())
		delete(d.conns, id)
	}
	return errors.Join(errs...)
}

// DatabaseDefinition declares Database as a managed type. The connector is
// optional, so the container passes nil and sqlx.Connect is used.
func DatabaseDefinition() *container.Definition {
	return container.Define(container.KeyDatabase, NewDatabase).
		Param("config").
		Optional("connect").
		Requires(container.KeyConfiguration, "config").
		Doc("MySQL connections from the databases section of the config.").
		Method("MySQLConnection", "Returns the pooled connection for a configured database.")
}

// Register adds the core types to pool.
func Register(pool *reflection.Pool) error {
	if err := pool.Register(EnvironmentSpec); err != nil {
		return err
	}
	return DatabaseDefinition().Register(pool)
}
