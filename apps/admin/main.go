package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/attendance"
	"github.com/trezcool/schoolhub/core/fee"
	"github.com/trezcool/schoolhub/core/importing"
	"github.com/trezcool/schoolhub/core/student"
	"github.com/trezcool/schoolhub/core/teacher"
	emailsvc "github.com/trezcool/schoolhub/services/email"
	logsvc "github.com/trezcool/schoolhub/services/logger"
	"github.com/trezcool/schoolhub/storage/database"
	dummydb "github.com/trezcool/schoolhub/storage/database/dummy"
	sqlxstore "github.com/trezcool/schoolhub/storage/database/sqlx"
)

func main() {
	os.Exit(start())
}

// start returns the exit code once deferred clean-ups have run.
func start() int {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	cli := &commandLine{conf: conf, logger: logger, out: os.Stdout}

	// set up DB & store
	var store core.DocumentStore
	if conf.Database.Engine == core.EngineMemory {
		store = dummydb.Open()
	} else {
		db, err := openDB(conf)
		if err != nil {
			logger.Error("setting up database", err)
			return 1
		}
		defer db.Close()
		cli.db = db
		store = sqlxstore.NewStore(db, conf)
	}

	// set up services
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	core.ParseEmailTemplates(conf, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	cli.importSvc = importing.NewService(conf, logger, mailSvc,
		student.NewImporter(store, validate),
		teacher.NewImporter(store, validate),
		fee.NewImporter(store, validate),
		attendance.NewImporter(store, validate),
	)

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		return 1
	}
	return 0
}

// openDB connects without migrating: `migrate` decides what to apply.
func openDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
