package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	StoreSheets = "sheets"
	StoreXLSX   = "xlsx"
	StoreMemory = "memory"
)

type SheetConfig struct {
	Backend         string
	SpreadsheetID   string
	Credentials     []byte
	CredentialsFile string
	XLSXPath        string
	CacheTTL        time.Duration
}

type AppConfig struct {
	Sheet            SheetConfig
	AllowEmptyAuthor bool
	HTTPAddr         string
	SyncAddr         string
	GrpcAddr         string
}

var sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetID accepts either a bare id or a full docs.google.com URL.
func SpreadsheetID(s string) string {
	s = strings.TrimSpace(s)
	if m := sheetURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func LoadSheetConfig() (SheetConfig, error) {
	cfg := SheetConfig{
		SpreadsheetID:   SpreadsheetID(os.Getenv("READLIST_SHEET_ID")),
		CredentialsFile: strings.TrimSpace(os.Getenv("READLIST_SHEETS_CREDENTIALS_FILE")),
		XLSXPath:        os.Getenv("READLIST_XLSX_PATH"),
		CacheTTL:        envSeconds("READLIST_CACHE_TTL_SECONDS", 5*time.Second),
	}
	if raw := strings.TrimSpace(os.Getenv("READLIST_SHEETS_CREDENTIALS")); raw != "" {
		cfg.Credentials = []byte(raw)
	}
	if cfg.XLSXPath == "" {
		cfg.XLSXPath = filepath.Join(dataDir(), "books.xlsx")
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("READLIST_STORE")))
	if cfg.Backend == "" {
		cfg.Backend = StoreXLSX
		if cfg.SpreadsheetID != "" {
			cfg.Backend = StoreSheets
		}
	}

	switch cfg.Backend {
	case StoreSheets:
		if cfg.SpreadsheetID == "" {
			return cfg, fmt.Errorf("READLIST_SHEET_ID is required for the sheets store")
		}
		if len(cfg.Credentials) == 0 && cfg.CredentialsFile == "" {
			return cfg, fmt.Errorf("READLIST_SHEETS_CREDENTIALS or READLIST_SHEETS_CREDENTIALS_FILE is required for the sheets store")
		}
	case StoreXLSX, StoreMemory:
	default:
		return cfg, fmt.Errorf("unknown READLIST_STORE %q (want sheets, xlsx or memory)", cfg.Backend)
	}
	return cfg, nil
}

func LoadAppConfig() (AppConfig, error) {
	sheet, err := LoadSheetConfig()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Sheet:            sheet,
		AllowEmptyAuthor: envBool("READLIST_ALLOW_EMPTY_AUTHOR", true),
		HTTPAddr:         envString("READLIST_HTTP_ADDR", ":8080"),
		SyncAddr:         envString("READLIST_SYNC_ADDR", ":7070"),
		GrpcAddr:         envString("READLIST_GRPC_ADDR", ":9090"),
	}, nil
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".readlist")
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envSeconds falls back to def when the value is missing or not a number.
func envSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
