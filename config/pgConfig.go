package config

import (
	"fmt"
)

// PostgresConfig represents the configuration needed to connect to a PostgreSQL database
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (pc PostgresConfig) GetConnectionString() string {
	sslMode := pc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, sslMode)
}

func (pc PostgresConfig) withDefaults(defaults PostgresConfig) PostgresConfig {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&pc.Host, defaults.Host)
	fill(&pc.Port, defaults.Port)
	fill(&pc.User, defaults.User)
	fill(&pc.Password, defaults.Password)
	fill(&pc.DBName, defaults.DBName)
	fill(&pc.SSLMode, defaults.SSLMode)
	return pc
}
