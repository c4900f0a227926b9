package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every runtime parameter of the application.
type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Gateway  GatewayConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type GatewayConfig struct {
	IdleTimeoutSec  int // read-side liveness window per connection
	PingIntervalSec int
	SendBuffer      int // outbound frames queued per connection before it counts as dead
}

// Load reads the simple two-level YAML format used for deployment configs.
// Supported sections: database:, rabbitmq:, gateway:.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	cfg.Database.Port = 5432
	cfg.Database.SSLMode = "disable"
	cfg.RabbitMQ.Port = 5672
	cfg.RabbitMQ.VHost = "/"
	cfg.Gateway.IdleTimeoutSec = 60
	cfg.Gateway.PingIntervalSec = 25
	cfg.Gateway.SendBuffer = 16

	scanner := bufio.NewScanner(file)
	var section string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			section = strings.TrimSuffix(line, ":")
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		switch section {
		case "database":
			switch key {
			case "host":
				cfg.Database.Host = value
			case "port":
				cfg.Database.Port = atoi(value, 5432)
			case "user":
				cfg.Database.User = value
			case "password":
				cfg.Database.Password = value
			case "database":
				cfg.Database.Database = value
			case "sslmode":
				if value != "" {
					cfg.Database.SSLMode = value
				}
			}
		case "rabbitmq":
			switch key {
			case "host":
				cfg.RabbitMQ.Host = value
			case "port":
				cfg.RabbitMQ.Port = atoi(value, 5672)
			case "user":
				cfg.RabbitMQ.User = value
			case "password":
				cfg.RabbitMQ.Password = value
			case "vhost":
				if value != "" {
					cfg.RabbitMQ.VHost = value
				}
			}
		case "gateway":
			switch key {
			case "idle_timeout":
				cfg.Gateway.IdleTimeoutSec = atoi(value, 60)
			case "ping_interval":
				cfg.Gateway.PingIntervalSec = atoi(value, 25)
			case "send_buffer":
				cfg.Gateway.SendBuffer = atoi(value, 16)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.RabbitMQ.Host == "" || cfg.RabbitMQ.User == "" {
		return nil, fmt.Errorf("rabbitmq config incomplete")
	}
	return cfg, nil
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
