package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultServerURL  = "http://localhost:5000"
	defaultResetDelay = 2 * time.Second
	defaultStyle      = "dark"
	defaultWrap       = 60
)

var (
	Dev        bool
	LogPath    string
	ServerURL  string
	Timeout    time.Duration
	ResetDelay time.Duration
	Style      string
	Wrap       int
)

// Init loads a .env file if one exists. It must run before BindFlags so the
// environment can supply flag defaults.
func Init() {
	_ = godotenv.Load()
}

func BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&Dev, "dev", envBool("ARENA_DEV", false), "Development mode")
	fs.StringVar(&LogPath, "logPath", os.Getenv("ARENA_LOG_PATH"), "Path to save the log file")
	fs.StringVar(&ServerURL, "server", envString("ARENA_URL", defaultServerURL), "Base URL of the comparison backend")
	fs.DurationVar(&Timeout, "timeout", envDuration("ARENA_TIMEOUT", 0), "Per request timeout, 0 disables it")
	fs.DurationVar(&ResetDelay, "reset-delay", defaultResetDelay, "Delay between a registered vote and the conversation reset")
	fs.StringVar(&Style, "style", envString("ARENA_STYLE", defaultStyle), "Markdown style (dark, light, notty, ascii, dracula, pink)")
	fs.IntVar(&Wrap, "wrap", defaultWrap, "Markdown word wrap width")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
