package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env-default:"9090"`
	Redis             Redis  `yaml:"redis"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path"`
	JWTSecretKey      string `yaml:"jwt-secret-key"`
	Game              Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Game holds the wager economics and validation limits every hosted game
// instance is deployed with. Amounts are in base ledger units.
type Game struct {
	WagerAmount        uint64 `yaml:"wager-amount" env-default:"1000000"`
	MoveTimeoutSeconds int64  `yaml:"move-timeout-seconds" env-default:"120"`
	FeeCeiling         uint64 `yaml:"fee-ceiling" env-default:"1000"`
	TxnFee             uint64 `yaml:"txn-fee" env-default:"1000"`
	SeedAmount         uint64 `yaml:"seed-amount" env-default:"10000000"`
	EscrowFeeFund      uint64 `yaml:"escrow-fee-fund" env-default:"100000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
