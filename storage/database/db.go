package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/coachdesk/core"
	appfs "github.com/trezcool/coachdesk/fs"
)

var errUnknownEngine = errors.New("unknown database engine")

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about
	sqlx.BindDriver(core.EngineSQLite, sqlx.QUESTION)
}

func gooseDialect(engine string) (string, error) {
	switch engine {
	case core.EngineSQLite:
		return "sqlite3", nil
	case core.EnginePostgres:
		return "postgres", nil
	}
	return "", errors.Wrap(errUnknownEngine, engine)
}

// Open opens the configured database. SQLite databases are limited to a single connection to serialize writers.
func Open(conf *core.Config) (*sqlx.DB, error) {
	if _, err := gooseDialect(conf.Database.Engine); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(conf.Database.Engine, conf.Database.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.Engine == core.EngineSQLite {
		db.SetMaxOpenConns(1)
	} else if conf.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	}

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// PrepareGoose points goose at the embedded migrations of the db's engine and returns their directory.
func PrepareGoose(db *sqlx.DB) (string, error) {
	dialect, err := gooseDialect(db.DriverName())
	if err != nil {
		return "", err
	}
	goose.SetBaseFS(appfs.FS)
	if err = goose.SetDialect(dialect); err != nil {
		return "", errors.Wrap(err, "setting goose dialect")
	}
	return appfs.MigrationsDir(db.DriverName()), nil
}

func Migrate(db *sqlx.DB) error {
	dir, err := PrepareGoose(db)
	if err != nil {
		return err
	}
	if err = goose.Up(db.DB, dir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
