package sheet

import (
	"context"
	"fmt"
	"log"
	"os"

	"readlist/pkg/utils"
)

// Open builds the store named by cfg.Backend and wraps it in a read cache when
// cfg.CacheTTL is positive.
func Open(ctx context.Context, cfg utils.SheetConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case utils.StoreSheets:
		store, err = openGoogleSheets(ctx, cfg)
	case utils.StoreXLSX:
		x := NewXLSX(cfg.XLSXPath)
		err = x.Init()
		store = x
	case utils.StoreMemory:
		store = NewMemory()
	default:
		return nil, fmt.Errorf("unknown sheet store %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[sheet] backend=%s cache_ttl=%s", cfg.Backend, cfg.CacheTTL)
	if cfg.CacheTTL > 0 {
		return NewCached(store, cfg.CacheTTL), nil
	}
	return store, nil
}

func openGoogleSheets(ctx context.Context, cfg utils.SheetConfig) (Store, error) {
	key := cfg.Credentials
	if len(key) == 0 && cfg.CredentialsFile != "" {
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, opErr("auth", fmt.Errorf("read credentials file: %w", err))
		}
		key = b
	}

	cred, err := CredentialOption(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewGoogleSheets(ctx, cfg.SpreadsheetID, cred)
}
