package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress          string
	DatabaseURI         string
	SecretKey           string
	RedisAddr           string
	RedisChannel        string
	KafkaBrokers        []string
	KafkaTopic          string
	TelegramBotToken    string
	TelegramAdminChatID int64
	EventWorkers        int
	DecisionTimeout     time.Duration
}

func NewConfig() (*Config, error) {
	// .env is optional; real environment variables still win over it.
	_ = godotenv.Load()

	cfg := &Config{}
	var kafkaBrokers string
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "HTTP server address")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "DB connection string")
	flag.StringVar(&cfg.SecretKey, "k", "", "JWT signing key for admin tokens")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for event publishing")
	flag.StringVar(&cfg.RedisChannel, "redis-channel", "wallet_events", "Redis pub/sub channel")
	flag.StringVar(&kafkaBrokers, "kafka", "", "Kafka brokers, comma separated")
	flag.StringVar(&cfg.KafkaTopic, "kafka-topic", "wallet-events", "Kafka topic")
	flag.StringVar(&cfg.TelegramBotToken, "tg-token", "", "Telegram bot token for admin notifications")
	flag.Int64Var(&cfg.TelegramAdminChatID, "tg-chat", 0, "Telegram admin chat id")
	flag.IntVar(&cfg.EventWorkers, "workers", 5, "Event dispatch workers")
	flag.DurationVar(&cfg.DecisionTimeout, "decision-timeout", 10*time.Second, "Approval transaction timeout")
	flag.Parse()

	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if err := ReadServerEnvironment(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func ReadServerEnvironment(cfg *Config) error {
	if runAddress := os.Getenv("RUN_ADDRESS"); runAddress != "" {
		cfg.RunAddress = runAddress
	}

	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		cfg.DatabaseURI = databaseURI
	}

	if secretKey := os.Getenv("SECRET_KEY"); secretKey != "" {
		cfg.SecretKey = secretKey
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}

	if redisChannel := os.Getenv("REDIS_CHANNEL"); redisChannel != "" {
		cfg.RedisChannel = redisChannel
	}

	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		cfg.KafkaBrokers = splitList(kafkaBrokers)
	}

	if kafkaTopic := os.Getenv("KAFKA_TOPIC"); kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramBotToken = token
	}

	if chatID := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		cfg.TelegramAdminChatID = id
	}

	if workers := os.Getenv("EVENT_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("parse EVENT_WORKERS: %w", err)
		}
		cfg.EventWorkers = n
	}

	if timeout := os.Getenv("DECISION_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("parse DECISION_TIMEOUT: %w", err)
		}
		cfg.DecisionTimeout = d
	}

	return nil
}

func splitList(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
