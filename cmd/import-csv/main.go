package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"readlist/internal/history"
	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/database"
	"readlist/pkg/models"
	"readlist/pkg/utils"
)

func main() {
	in := flag.String("books", "data/books.csv", "input CSV path (title,author,total[,progress,status])")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := utils.LoadAppConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	store, err := sheet.Open(ctx, cfg.Sheet)
	if err != nil {
		log.Fatalf("open sheet store: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctl := progress.New(store,
		progress.WithAllowEmptyAuthor(cfg.AllowEmptyAuthor),
		progress.WithRecorder(history.NewRepo(db)),
	)

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open %s: %v", *in, err)
	}
	defer f.Close()

	res, err := importBooks(ctx, ctl, f)
	if err != nil {
		log.Fatalf("import books failed: %v", err)
	}
	log.Printf("✅ imported %d books from %s (%d skipped)", res.Added, *in, res.Skipped)
}

type result struct {
	Added   int
	Skipped int
}

// importBooks adds every row whose title is not in the sheet yet. Rows that
// carry progress or a done status are moved there after the add.
func importBooks(ctx context.Context, ctl *progress.Controller, in io.Reader) (result, error) {
	var res result

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return res, err
	}
	if _, ok := header["title"]; !ok {
		return res, errors.New("missing title column")
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "title")
		total, err := strconv.Atoi(valueAt(header, row, "total"))
		if err != nil {
			log.Printf("[import] line %d %q: bad total, skipped", line, title)
			res.Skipped++
			continue
		}

		b, err := ctl.AddBook(ctx, title, valueAt(header, row, "author"), total)
		switch {
		case errors.Is(err, progress.ErrDuplicateTitle):
			log.Printf("[import] line %d %q: already in the sheet, skipped", line, title)
			res.Skipped++
			continue
		case errors.Is(err, sheet.ErrUnavailable):
			return res, err
		case err != nil:
			log.Printf("[import] line %d %q: %v, skipped", line, title, err)
			res.Skipped++
			continue
		}
		res.Added++

		if models.ParseStatus(valueAt(header, row, "status")) == models.StatusDone {
			if _, err := ctl.MarkDone(ctx, b); err != nil {
				return res, fmt.Errorf("mark %q done: %w", title, err)
			}
			continue
		}
		if p, err := strconv.Atoi(valueAt(header, row, "progress")); err == nil && p > 0 {
			if _, err := ctl.SetProgress(ctx, b, progress.Clamp(p)); err != nil {
				return res, fmt.Errorf("set progress of %q: %w", title, err)
			}
		}
	}

	return res, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
