// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string `mapstructure:"PORT"`
	APIKey   string `mapstructure:"API_KEY"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// MSH endpoint identities for the HL7 output.
	SendingApplication   string `mapstructure:"HL7_SENDING_APPLICATION"`
	SendingFacility      string `mapstructure:"HL7_SENDING_FACILITY"`
	ReceivingApplication string `mapstructure:"HL7_RECEIVING_APPLICATION"`
	ReceivingFacility    string `mapstructure:"HL7_RECEIVING_FACILITY"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HL7_SENDING_APPLICATION", "SRBRIDGE")
	v.SetDefault("HL7_SENDING_FACILITY", "MAMMO_HOSP")
	v.SetDefault("HL7_RECEIVING_APPLICATION", "HL7_RECEIVER")
	v.SetDefault("HL7_RECEIVING_FACILITY", "HOSP")

	for _, key := range []string{
		"PORT",
		"API_KEY",
		"LOG_LEVEL",
		"HL7_SENDING_APPLICATION",
		"HL7_SENDING_FACILITY",
		"HL7_RECEIVING_APPLICATION",
		"HL7_RECEIVING_FACILITY",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// A missing .env file is fine, the environment still applies.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
