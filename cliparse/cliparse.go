package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendNotion   = "notion"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

const (
	DefaultPort          = 3318
	DefaultNotionBaseURL = "https://api.notion.com/v1"
	DefaultOptionPrefix  = "Event "
	DefaultStoreTimeout  = 10 * time.Second
	DefaultMaxBodyBytes  = 1 << 20
)

type Config struct {
	Port         int
	DatabaseType string
	DatabaseURL  string

	NotionToken   string
	NotionBaseURL string

	PollResultCollection string
	VoteLedgerCollection string
	OptionMapCollection  string

	BotToken  string
	ChannelID string

	OptionPrefix string
	StoreTimeout time.Duration
	MaxBodyBytes int64
	TrustProxy   bool
}

// LogValue keeps secrets out of the logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Port),
		slog.String("backend", c.DatabaseType),
		slog.String("poll_results", c.PollResultCollection),
		slog.String("vote_ledger", c.VoteLedgerCollection),
		slog.String("option_map", c.OptionMapCollection),
		slog.String("channel_id", c.ChannelID),
		slog.Duration("store_timeout", c.StoreTimeout),
		slog.Bool("trust_proxy", c.TrustProxy),
	)
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("pollsync", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres or sqlite backend)")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Record store backend (notion, postgres or sqlite)")

	// Collections
	fs.StringVar(&cfg.PollResultCollection, "poll-results", "", "Poll summary collection ID")
	fs.StringVar(&cfg.VoteLedgerCollection, "vote-ledger", "", "Vote ledger collection ID")
	fs.StringVar(&cfg.OptionMapCollection, "option-map", "", "Poll option map collection ID")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.NotionToken, "notion-token", "", "Notion integration token (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = BackendNotion
		}
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.NotionToken == "" {
		cfg.NotionToken = os.Getenv("NOTION_TOKEN")
	}
	cfg.NotionBaseURL = envOr("NOTION_BASE_URL", DefaultNotionBaseURL)

	switch cfg.DatabaseType {
	case BackendNotion:
		if cfg.NotionToken == "" {
			return Config{}, errors.New("NOTION_TOKEN required for the notion backend")
		}
	case BackendPostgres, BackendSQLite:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATABASE_TYPE %q (want notion, postgres or sqlite)", cfg.DatabaseType)
	}

	// Identifiers - MUST be provided
	if cfg.PollResultCollection == "" {
		cfg.PollResultCollection = os.Getenv("POLL_RESULT_DB_ID")
	}
	if cfg.PollResultCollection == "" {
		return Config{}, errors.New("POLL_RESULT_DB_ID required")
	}

	if cfg.VoteLedgerCollection == "" {
		cfg.VoteLedgerCollection = os.Getenv("POLL_DET_RESULT_DB_ID")
	}
	if cfg.VoteLedgerCollection == "" {
		return Config{}, errors.New("POLL_DET_RESULT_DB_ID required")
	}

	if cfg.OptionMapCollection == "" {
		cfg.OptionMapCollection = os.Getenv("POLL_TO_EVENT_DBID")
	}
	if cfg.OptionMapCollection == "" {
		return Config{}, errors.New("POLL_TO_EVENT_DBID required")
	}

	cfg.BotToken = os.Getenv("API_KEY")
	if cfg.BotToken == "" {
		return Config{}, errors.New("API_KEY required")
	}
	cfg.ChannelID = os.Getenv("CHANNEL_ID")
	if cfg.ChannelID == "" {
		return Config{}, errors.New("CHANNEL_ID required")
	}

	// Tunables
	cfg.OptionPrefix = DefaultOptionPrefix
	if v := os.Getenv("OPTION_PREFIX"); v != "" {
		cfg.OptionPrefix = v
	} else if v := os.Getenv("EVENT_NAME"); v != "" {
		cfg.OptionPrefix = v
	}

	cfg.StoreTimeout = DefaultStoreTimeout
	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid STORE_TIMEOUT env variable")
		}
		cfg.StoreTimeout = d
	}

	cfg.MaxBodyBytes = DefaultMaxBodyBytes
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, errors.New("invalid MAX_BODY_BYTES env variable")
		}
		cfg.MaxBodyBytes = n
	}

	if v := os.Getenv("TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid TRUST_PROXY env variable")
		}
		cfg.TrustProxy = b
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
