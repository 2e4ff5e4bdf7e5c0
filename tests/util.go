// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
	"github.com/trezcool/coachdesk/core/registration"
	logsvc "github.com/trezcool/coachdesk/services/logger"
	"github.com/trezcool/coachdesk/storage/database"
)

// NewConfig returns a TEST config pointing at a fresh SQLite file & uploads dir.
func NewConfig(t *testing.T) *core.Config {
	conf := core.NewConfig()
	dir := t.TempDir()

	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = false
	conf.BaseURL = "http://example.com"
	conf.Server.DisableReqLogs = true
	conf.Database.Engine = core.EngineSQLite
	conf.Database.DSN = "file:" + filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conf.Uploads.Dir = filepath.Join(dir, "uploads")
	conf.Uploads.MaxBytes = "16M"
	conf.Mail.Provider = core.MailProviderConsole
	conf.Storage = core.StorageConfig{}
	return conf
}

// NewLogger returns a logger that discards its output and never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
}

// PrepareDB opens & migrates the database of conf. It is closed when the test ends.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	var c *core.Config
	if len(conf) > 0 {
		c = conf[0]
	} else {
		c = NewConfig(t)
	}

	db, err := database.Open(c)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	return db
}

func CreateInstitute(
	t *testing.T,
	repo institute.Repository,
	uname, name, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) institute.Institute {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	inst := institute.Institute{
		Username:  uname,
		Name:      name,
		Email:     email,
		Amount:    institute.DefaultAmount,
		IsActive:  true,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := inst.SetPassword(pwd); err != nil {
			t.Fatalf("CreateInstitute() failed: %v", err)
		}
	}

	ctx := context.Background()
	inst, err := repo.CreateInstitute(ctx, inst, institute.DefaultConfiguration(0))
	if err != nil {
		t.Fatalf("CreateInstitute() failed: %v", err)
	}
	if !isActive {
		if err = repo.ToggleInstitute(ctx, inst.ID); err != nil {
			t.Fatalf("CreateInstitute() failed to disable: %v", err)
		}
		inst.IsActive = false
	}
	return inst
}

func CreateRegistration(
	t *testing.T,
	repo registration.Repository,
	instituteID int,
	name, email, phone string,
	createdAt ...time.Time,
) registration.Registration {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	reg, err := repo.CreateRegistration(context.Background(), registration.Registration{
		InstituteID:   instituteID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		PaymentStatus: registration.StatusPending,
		CreatedAt:     tstamp,
	})
	if err != nil {
		t.Fatalf("CreateRegistration() failed: %v", err)
	}
	return reg
}

func CreateITAdmin(t *testing.T, repo itadmin.Repository, uname, pwd string) itadmin.Admin {
	admin := itadmin.Admin{Username: uname, CreatedAt: time.Now().UTC()}
	if err := admin.SetPassword(pwd); err != nil {
		t.Fatalf("CreateITAdmin() failed: %v", err)
	}
	admin, err := repo.CreateAdmin(context.Background(), admin)
	if err != nil {
		t.Fatalf("CreateITAdmin() failed: %v", err)
	}
	return admin
}
