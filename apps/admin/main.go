package main

import (
	"log"
	"os"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
	"github.com/torneros/elms/core/token"
	emailsvc "github.com/torneros/elms/services/email"
	logsvc "github.com/torneros/elms/services/logger"
	"github.com/torneros/elms/storage/database"
	sqlxrepos "github.com/torneros/elms/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logsvc.NewStdLogger(logger))
	}

	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	gradeSvc := grade.NewService(sqlxrepos.NewGradeRepository(db))
	tokenSvc := token.NewService(
		sqlxrepos.NewTokenRepository(db),
		sqlxrepos.NewTemplateRepository(db),
		studentSvc,
		gradeSvc,
		mailSvc,
		conf,
		logsvc.NewStdLogger(logger),
	)

	// start CLI
	cli := commandLine{
		db:       db,
		tokenSvc: tokenSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
