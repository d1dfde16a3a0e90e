package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is passed explicitly from main; nothing in here is global.
type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
}

// ParseFlags builds the configuration from command-line flags, with a .env
// file (if present) supplying flag defaults via FORMLAB_* variables.
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envString("FORMLAB_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUint("FORMLAB_PORT", 8080), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envString("FORMLAB_DB_URL", "formlab.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", envString("FORMLAB_TOKEN_SECRET", ""), "secret key for token signing")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUint("FORMLAB_TOKEN_TTL", 3600), "token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", envString("FORMLAB_DEBUG", "") != "", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (or FORMLAB_TOKEN_SECRET)")
	}

	return
}

func (cfg Config) Url() string {
	addr := strings.Replace(cfg.Addr, "0.0.0.0", "localhost", 1)
	return "http://" + addr
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
