package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "PAI_"

type Application struct {
	Host       string     `koanf:"host"`
	Port       int        `koanf:"port"`
	Google     Google     `koanf:"google"`
	Database   Database   `koanf:"db"`
	Amqp       Amqp       `koanf:"amqp"`
	Automation Automation `koanf:"automation"`
	Client     Client     `koanf:"client"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
	// CalendarId is the calendar records are exported to.
	CalendarId string `koanf:"calendarid"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Amqp publishing is disabled while Url is empty.
type Amqp struct {
	Url      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
}

type Automation struct {
	PomodoroMinutes int `koanf:"pomodorominutes"`
}

type Client struct {
	BaseUrl         string        `koanf:"baseurl"`
	LocalStorePath  string        `koanf:"localstorepath"`
	LocalStoreQuota int64         `koanf:"localstorequota"`
	SyncDelay       time.Duration `koanf:"syncdelay"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Google: Google{
			CalendarId: "primary",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "pai",
			Pass:   "",
			Name:   "pai",
			Schema: "pai",
		},
		Amqp: Amqp{
			Exchange: "pai.records",
		},
		Automation: Automation{
			PomodoroMinutes: 25,
		},
		Client: Client{
			BaseUrl:         "http://localhost:8181",
			LocalStorePath:  "pai.db",
			LocalStoreQuota: 5 << 20,
			SyncDelay:       2 * time.Second,
		},
	}
}

// Load layers defaults, the optional YAML file at path, an optional .env file and PAI_ environment variables.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("error loading .env file: %v", err)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
