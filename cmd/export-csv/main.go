package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"readlist/internal/history"
	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/database"
	"readlist/pkg/models"
	"readlist/pkg/utils"
)

func main() {
	var (
		booksOut   = flag.String("books", "data/books.csv", "output CSV path for books")
		historyOut = flag.String("history", "data/history.csv", "output CSV path for the history journal")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := utils.LoadSheetConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	store, err := sheet.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open sheet store: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	books, err := progress.New(store).List(ctx)
	if err != nil {
		log.Fatalf("list books failed: %v", err)
	}
	if err := writeFile(*booksOut, func(w io.Writer) error {
		return writeBooks(w, progress.Views(books))
	}); err != nil {
		log.Fatalf("export books failed: %v", err)
	}

	entries, err := history.NewRepo(db).All(ctx)
	if err != nil {
		log.Fatalf("list history failed: %v", err)
	}
	if err := writeFile(*historyOut, func(w io.Writer) error {
		return writeHistory(w, entries)
	}); err != nil {
		log.Fatalf("export history failed: %v", err)
	}

	log.Printf("✅ exported %d books to %s and %d history entries to %s", len(books), *booksOut, len(entries), *historyOut)
}

func writeFile(outPath string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	return f.Close()
}

func writeBooks(out io.Writer, views []progress.View) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"title", "author", "progress", "total", "read_pages", "status", "date"}); err != nil {
		return err
	}
	for _, v := range views {
		if err := w.Write([]string{
			v.Title,
			v.Author,
			strconv.Itoa(v.Progress),
			strconv.Itoa(v.Total),
			strconv.Itoa(v.ReadPages),
			string(v.Status),
			v.Date,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeHistory(out io.Writer, entries []models.ProgressEntry) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"at", "title", "action", "progress", "status", "date"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{
			e.At.UTC().Format(time.RFC3339),
			e.Title,
			string(e.Action),
			strconv.Itoa(e.Progress),
			string(e.Status),
			e.Date,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
