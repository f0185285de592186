package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ikkim/translation-backend/config"
	"github.com/ikkim/translation-backend/internal/app/model"
	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/internal/cache"
	"github.com/ikkim/translation-backend/internal/db"
	"github.com/ikkim/translation-backend/internal/export"
	"github.com/ikkim/translation-backend/pkg/logger"
	redisclient "github.com/ikkim/translation-backend/pkg/redis"
	"github.com/ikkim/translation-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	minBatchSize = 100
	maxBatchSize = 10000
)

var syntheticLocales = []string{"en", "fr", "es", "de"}

// seedRow is one spreadsheet or generated row before it is resolved against
// the database.
type seedRow struct {
	Locale      string
	Key         string
	Value       string
	Description string
	Tags        []string
}

func main() {
	filePath := flag.String("file", "", "XLSX file with columns: locale, key, value, description, tags")
	count := flag.Int("count", 1000, "number of synthetic keys to generate when no file is given")
	batchSize := flag.Int("batch-size", 1000, "rows per insert batch (100..10000)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Initialize(logger.ConfigForEnvironment(cfg.Server.Environment))

	if *batchSize < minBatchSize || *batchSize > maxBatchSize {
		logger.Fatal("Invalid batch size", fmt.Errorf("batch-size must be between %d and %d, got %d", minBatchSize, maxBatchSize, *batchSize))
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedBaseData(db.GetDB()); err != nil {
		logger.Fatal("Failed to seed base data", err)
	}

	var rows []seedRow
	if *filePath != "" {
		logger.Info("Reading XLSX file", logger.Fields{"file": *filePath})
		rows, err = readRowsFromXLSX(*filePath)
		if err != nil {
			logger.Fatal("Failed to read XLSX", err)
		}
	} else {
		rows = generateSyntheticRows(*count, syntheticLocales)
	}

	started := time.Now()
	imported, skipped, err := importRows(db.GetDB(), rows, *batchSize)
	if err != nil {
		logger.Fatal("Failed to import translations", err)
	}
	logger.Info("Import completed", logger.Fields{
		"imported":    imported,
		"skipped":     skipped,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if err := flushExportCache(cfg); err != nil {
		logger.Warn("Export cache was not flushed", logger.Fields{"error": err.Error()})
	}
}

// readRowsFromXLSX reads the first sheet. The first row is a header; rows
// without a locale, key or value are skipped. Tags are comma separated.
func readRowsFromXLSX(filePath string) ([]seedRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data found in XLSX file")
	}

	out := make([]seedRow, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		r := seedRow{
			Locale:      strings.ToLower(cell(0)),
			Key:         model.NormalizeKey(cell(1)),
			Value:       cell(2),
			Description: cell(3),
			Tags:        splitTags(cell(4)),
		}
		if r.Locale == "" || r.Key == "" || r.Value == "" {
			skipped++
			continue
		}
		out = append(out, r)
	}

	logger.Info("XLSX parsed", logger.Fields{
		"sheet":   sheetName,
		"rows":    len(rows) - 1,
		"valid":   len(out),
		"skipped": skipped,
	})
	return out, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var (
	syntheticSections = []string{"auth", "navigation", "forms", "buttons", "messages"}
	syntheticTags     = [][]string{{"web"}, {"mobile"}, {"web", "mobile"}, {"admin"}, {"api"}}
)

// generateSyntheticRows produces count keys, each translated into every locale.
func generateSyntheticRows(count int, locales []string) []seedRow {
	rows := make([]seedRow, 0, count*len(locales))
	for i := 0; i < count; i++ {
		section := syntheticSections[i%len(syntheticSections)]
		key := fmt.Sprintf("%s.item_%d.label", section, i)
		tags := append([]string{section}, syntheticTags[i%len(syntheticTags)]...)
		for _, code := range locales {
			rows = append(rows, seedRow{
				Locale:      code,
				Key:         key,
				Value:       fmt.Sprintf("[%s] %s item %d", code, section, i),
				Description: fmt.Sprintf("Generated %s label", section),
				Tags:        tags,
			})
		}
	}
	return rows
}

// importRows resolves locales and tags and inserts the rows in batches.
// Unknown locales and (key, locale) pairs that already exist are skipped;
// unknown tags are created.
func importRows(tx *gorm.DB, rows []seedRow, batchSize int) (int, int, error) {
	var locales []model.Locale
	if err := tx.Find(&locales).Error; err != nil {
		return 0, 0, err
	}
	localeIDs := make(map[string]uint, len(locales))
	for _, l := range locales {
		localeIDs[l.Code] = l.ID
	}

	tags, err := resolveTags(tx, rows)
	if err != nil {
		return 0, 0, err
	}

	type pair struct {
		key      string
		localeID uint
	}
	seen := make(map[pair]bool)
	var existing []model.Translation
	if err := tx.Select("key", "locale_id").Find(&existing).Error; err != nil {
		return 0, 0, err
	}
	for _, t := range existing {
		seen[pair{t.Key, t.LocaleID}] = true
	}

	skipped := 0
	translations := make([]model.Translation, 0, len(rows))
	for _, r := range rows {
		localeID, ok := localeIDs[r.Locale]
		if !ok {
			skipped++
			continue
		}
		p := pair{model.NormalizeKey(r.Key), localeID}
		if seen[p] {
			skipped++
			continue
		}
		seen[p] = true

		tr := model.Translation{
			Key:         r.Key,
			Value:       r.Value,
			LocaleID:    localeID,
			Description: r.Description,
			IsActive:    true,
		}
		for _, name := range r.Tags {
			if tag, ok := tags[util.Slugify(name)]; ok {
				tr.Tags = append(tr.Tags, tag)
			}
		}
		translations = append(translations, tr)
	}

	if len(translations) == 0 {
		return 0, skipped, nil
	}
	if err := tx.CreateInBatches(&translations, batchSize).Error; err != nil {
		return 0, skipped, err
	}
	return len(translations), skipped, nil
}

// resolveTags returns tags keyed by slug, creating the ones that are missing.
func resolveTags(tx *gorm.DB, rows []seedRow) (map[string]*model.TranslationTag, error) {
	var tags []*model.TranslationTag
	if err := tx.Find(&tags).Error; err != nil {
		return nil, err
	}
	bySlug := make(map[string]*model.TranslationTag, len(tags))
	for _, t := range tags {
		bySlug[t.Slug] = t
	}

	for _, r := range rows {
		for _, name := range r.Tags {
			slug := util.Slugify(name)
			if slug == "" || bySlug[slug] != nil {
				continue
			}
			tag := &model.TranslationTag{Name: name, Slug: slug, IsActive: true}
			if err := tx.Create(tag).Error; err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
			bySlug[slug] = tag
		}
	}
	return bySlug, nil
}

// flushExportCache drops cached exports so the imported rows are visible.
// The in-memory store lives inside the server process and has nothing to flush.
func flushExportCache(cfg *config.Config) error {
	if cfg.Cache.Driver != "redis" {
		logger.Info("In-memory cache configured, nothing to flush", nil)
		return nil
	}

	client, err := redisclient.Init(&cfg.Redis)
	if err != nil {
		return err
	}
	defer redisclient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inv := service.NewCacheInvalidator(cache.NewRedisStore(client), export.NewKeyDeriver(cfg.Cache.Namespace))
	if err := inv.FlushAll(ctx); err != nil {
		return err
	}
	logger.Info("Export cache flushed", nil)
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seed [-file translations.xlsx] [-count N] [-batch-size N]\n")
		flag.PrintDefaults()
	}
}
