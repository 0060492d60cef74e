package application

import (
	"log/slog"
	"time"
)

// StartOptions defines startup options shared by the serve and headless runtimes.
type StartOptions struct {
	ConfigDir    string
	DBPath       string
	LocalHost    string
	LocalPort    int
	APIBaseURL   string
	APIToken     string
	Account      string
	HTTPTimeout  time.Duration
	TickInterval time.Duration
	Logger       *slog.Logger
}
