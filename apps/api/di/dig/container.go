package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/schoolhub/apps/api/echo"
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

const importersGroup = "importers"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// StoreResult carries the backing store and, with the postgres engine, the DB to close on exit.
type StoreResult struct {
	dig.Out
	Store core.DocumentStore
	DB    *sqlx.DB
}

type importServiceParams struct {
	dig.In
	Conf      *core.Config
	Logger    core.Logger
	MailSvc   core.EmailService
	Importers []importing.Importer `group:"importers"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	ImportSvc  *importing.Service
	Store      core.DocumentStore
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) StoreResult {
	logger := loggerParam.Logger

	switch conf.Database.Engine {
	case core.EngineMemory:
		logger.Warn("using the in-memory store: imported records are lost on exit")
		return StoreResult{Store: dummydb.Open()}
	case core.EnginePostgres:
	default:
		logger.Fatal(fmt.Sprintf("unknown database engine %q", conf.Database.Engine))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Setup(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return StoreResult{Store: sqlxstore.NewStore(db, conf), DB: db}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newImportService(p importServiceParams) *importing.Service {
	return importing.NewService(p.Conf, p.Logger, p.MailSvc, p.Importers...)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		ImportSvc:  p.ImportSvc,
		Store:      p.Store,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	// one importer per entity kind
	must(c.Provide(student.NewImporter, dig.Group(importersGroup)))
	must(c.Provide(teacher.NewImporter, dig.Group(importersGroup)))
	must(c.Provide(fee.NewImporter, dig.Group(importersGroup)))
	must(c.Provide(attendance.NewImporter, dig.Group(importersGroup)))

	must(c.Provide(newImportService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
