package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Chain      ChainConfig      `yaml:"chain"`
	Keystore   KeystoreConfig   `yaml:"keystore"`
	Deposit    DepositConfig    `yaml:"deposit"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Gas        GasConfig        `yaml:"gas"`
	Withdrawal WithdrawalConfig `yaml:"withdrawal"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// JWTConfig holds the operator-token settings. Tokens are issued out-of-band
// by the operator tool; the engine only verifies them.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	Expiry time.Duration `yaml:"expiry"`
}

type ChainConfig struct {
	RPCURL        string `yaml:"rpc_url"`
	TokenAddress  string `yaml:"token_address"`
	TokenDecimals int32  `yaml:"token_decimals"`
	Confirmations uint64 `yaml:"confirmations"`
}

type KeystoreConfig struct {
	Secret string `yaml:"secret"`
}

type DepositConfig struct {
	ScanCron       string `yaml:"scan_cron"`
	FinalityBlocks uint64 `yaml:"finality_blocks"`
	MaxScanChunk   uint64 `yaml:"max_scan_chunk"`
	// DefaultVaultID receives deposits from wallets not pinned to a vault.
	DefaultVaultID uint `yaml:"default_vault_id"`
	// FeePercent is the platform fee taken off every deposit, e.g. 0.2 for 20%.
	FeePercent decimal.Decimal `yaml:"-"`
}

type SweepConfig struct {
	Cron string `yaml:"cron"`
	// OpsShare is the fraction of each swept deposit routed to the operations
	// wallet; the remainder goes to the trading wallet.
	OpsShare           decimal.Decimal `yaml:"-"`
	InterPositionDelay time.Duration   `yaml:"inter_position_delay"`
	TradingAddress     string          `yaml:"trading_address"`
	OperationsAddress  string          `yaml:"operations_address"`
}

type GasConfig struct {
	// TransferGasLimit is the gas budget assumed for one token transfer when
	// sizing a cushion before broadcasting.
	TransferGasLimit uint64        `yaml:"transfer_gas_limit"`
	TopUpBufferWei   string        `yaml:"top_up_buffer_wei"`
	ConfirmTimeout   time.Duration `yaml:"confirm_timeout"`
}

type WithdrawalConfig struct {
	Cron            string        `yaml:"cron"`
	FundingCooldown time.Duration `yaml:"funding_cooldown"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, default config.yaml) and environment variable overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         "8090",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             "poolvault:poolvault@tcp(localhost:3306)/poolvault?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: "change-me-in-production",
			Issuer: "poolvault",
			Expiry: 12 * time.Hour,
		},
		Chain: ChainConfig{
			TokenAddress:  "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			TokenDecimals: 6,
			Confirmations: 1,
		},
		Deposit: DepositConfig{
			ScanCron:       "*/15 * * * * *",
			FinalityBlocks: 5,
			MaxScanChunk:   500,
			DefaultVaultID: 1,
			FeePercent:     decimal.RequireFromString("0.2"),
		},
		Sweep: SweepConfig{
			Cron:               "0 */10 * * * *",
			OpsShare:           decimal.RequireFromString("0.2"),
			InterPositionDelay: 3 * time.Second,
		},
		Gas: GasConfig{
			TransferGasLimit: 65000,
			TopUpBufferWei:   "100000000000000", // 0.0001 native
			ConfirmTimeout:   3 * time.Minute,
		},
		Withdrawal: WithdrawalConfig{
			Cron:            "*/45 * * * * *",
			FundingCooldown: 2 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "ledger_events",
		},
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if cfg.Chain.RPCURL == "" {
		return nil, fmt.Errorf("chain RPC URL required (set CHAIN_RPC_URL or chain.rpc_url)")
	}
	if cfg.Keystore.Secret == "" {
		return nil, fmt.Errorf("keystore secret required (set KEYSTORE_SECRET)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("CHAIN_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("TOKEN_ADDRESS"); v != "" {
		cfg.Chain.TokenAddress = v
	}
	if v := os.Getenv("KEYSTORE_SECRET"); v != "" {
		cfg.Keystore.Secret = v
	}
	if v := os.Getenv("TRADING_WALLET_ADDRESS"); v != "" {
		cfg.Sweep.TradingAddress = v
	}
	if v := os.Getenv("OPERATIONS_WALLET_ADDRESS"); v != "" {
		cfg.Sweep.OperationsAddress = v
	}
	if v := os.Getenv("DEPOSIT_FEE_PERCENT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.Deposit.FeePercent = d
		}
	}
	if v := os.Getenv("SWEEP_OPS_SHARE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.Sweep.OpsShare = d
		}
	}
	if v := os.Getenv("MAX_SCAN_CHUNK"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.Deposit.MaxScanChunk = n
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
}
