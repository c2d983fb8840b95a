package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var Conf *viper.Viper

func init() {
	Conf = viper.New()

	// defaults
	Conf.SetTypeByDefaultValue(true)
	Conf.SetDefault("debug", true)
	Conf.SetDefault("appName", "Actgen")
	Conf.SetDefault("serverAddress", ":8080")
	Conf.SetDefault("debugAddress", ":4000")
	Conf.SetDefault("shutdownTimeout", 20*time.Second)
	Conf.SetDefault("defaultFromEmail", "noreply@localhost")
	Conf.SetDefault("supportEmail", "instruccional2.die@uautonoma.cl")
	Conf.SetDefault("canvasPageSize", 100)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		Conf.SetDefault("testMode", true)
	}
	Conf.SetDefault("env", env)
	Conf.SetDefault("build", "dev")
	Conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	Conf.AutomaticEnv()
}

// CheckConfig ensures the settings without which no run is possible are present.
func CheckConfig() error {
	if Conf.GetString("canvasBaseURL") == "" {
		return errors.New("canvasBaseURL is not set")
	}
	if Conf.GetString("canvasToken") == "" {
		return errors.New("canvasToken is not set")
	}
	return nil
}
