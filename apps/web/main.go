package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/uautonoma/actgen/apps/web/echo"
	"github.com/uautonoma/actgen/core"
	"github.com/uautonoma/actgen/core/acta"
	"github.com/uautonoma/actgen/services/canvas"
	emailsvc "github.com/uautonoma/actgen/services/email"
	sendgridmail "github.com/uautonoma/actgen/services/email/sendgrid"
	logsvc "github.com/uautonoma/actgen/services/logger"
	"github.com/uautonoma/actgen/storage/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	debug := core.Conf.GetBool("debug")

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	)
	logger.Enable(!debug)

	if err := core.CheckConfig(); err != nil {
		logger.Fatal(fmt.Sprintf("checking configuration: %v", err), err)
	}

	client := canvas.NewClient(
		core.Conf.GetString("canvasBaseURL"),
		core.Conf.GetString("canvasToken"),
	)
	actaSvc := acta.NewService(client, logger)

	var mailSvc core.EmailService
	if debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = sendgridmail.NewService(logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.GetString("build")))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(core.Conf.GetString("build"))
	expvar.NewString("env").Set(core.Conf.GetString("env"))

	go func() {
		if err := http.ListenAndServe(core.Conf.GetString("debugAddress"), http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Web Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Logger:   logger,
			ActaSvc:  actaSvc,
			Store:    inmem.NewReportStore(),
			MailSvc:  mailSvc,
			Validate: validate,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.GetDuration("shutdownTimeout"))
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
