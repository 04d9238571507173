package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       int
	DatabaseDSN      string
	JWTSecret        string
	SchedulerEnabled bool
}

func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("database.dsn", "rentbot.db")
	viper.SetDefault("auth.jwt_secret", "dev-secret")
	viper.SetDefault("scheduler.enabled", true)
	viper.SetEnvPrefix("rentbot")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file found, using defaults")
	}
	return &Config{
		ServerPort:       viper.GetInt("server.port"),
		DatabaseDSN:      viper.GetString("database.dsn"),
		JWTSecret:        viper.GetString("auth.jwt_secret"),
		SchedulerEnabled: viper.GetBool("scheduler.enabled"),
	}
}
