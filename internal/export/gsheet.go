package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/dagbok/internal/app"
	"github.com/shrimpsizemoose/dagbok/internal/journal"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
)

const (
	noData        = "—"
	exportTimeout = time.Minute
)

// sheetValues is the slice of the Sheets values API the exporter needs.
type sheetValues interface {
	Read(ctx context.Context, sheetID, readRange string) ([][]interface{}, error)
	Write(ctx context.Context, sheetID string, cells map[string]interface{}) error
}

type sheetsClient struct {
	svc *sheets.Service
}

func (c *sheetsClient) Read(ctx context.Context, sheetID, readRange string) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *sheetsClient) Write(ctx context.Context, sheetID string, cells map[string]interface{}) error {
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for cell, value := range cells {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  cell,
			Values: [][]interface{}{{value}},
		})
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(sheetID, req).Context(ctx).Do()
	return err
}

type GSheetExporter struct {
	journal   *journal.Engine
	scheduler *gocron.Scheduler
}

// NewGSheetExporter schedules one job per [[gsheet]] entry and starts the
// scheduler.
func NewGSheetExporter(config *app.Config, engine *journal.Engine) (*GSheetExporter, error) {
	ctx := context.Background()
	exporter := &GSheetExporter{
		journal:   engine,
		scheduler: gocron.NewScheduler(config.Location()),
	}

	for i := range config.GSheets {
		cfg := config.GSheets[i]

		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service for %s: %w", cfg.SheetID, err)
		}
		client := &sheetsClient{svc: svc}

		_, err = exporter.scheduler.Cron(cfg.Schedule).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
			defer cancel()
			if err := exporter.Export(ctx, client, cfg); err != nil {
				logger.Error.Printf("Export to sheet %s failed: %v", cfg.SheetID, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export for %s: %w", cfg.SheetID, err)
		}
		logger.Info.Printf("Scheduled export of class %d to sheet %s (%s)", cfg.ClassID, cfg.SheetID, cfg.Schedule)
	}

	exporter.scheduler.StartAsync()
	return exporter, nil
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export writes the period average of every student listed in the sheet.
func (e *GSheetExporter) Export(ctx context.Context, client sheetValues, cfg app.GSheetConfig) error {
	rows, err := client.Read(ctx, cfg.SheetID, qualify(cfg.SheetName, cfg.StudentsRange))
	if err != nil {
		return fmt.Errorf("failed to read students: %w", err)
	}

	period, err := scoring.ParsePeriod(cfg.Period)
	if err != nil {
		return err
	}
	year := cfg.AcademicYear
	if year == 0 {
		year = scoring.AcademicYear(e.journal.Now().In(e.journal.Location()))
	}

	averages, err := e.journal.Averages(ctx, journal.AveragesQuery{
		ClassID:      cfg.ClassID,
		SubjectID:    cfg.SubjectID,
		Period:       period,
		AcademicYear: year,
	})
	if err != nil {
		return fmt.Errorf("failed to compute averages: %w", err)
	}

	key := journal.OverallKey
	if cfg.SubjectID != 0 {
		key = journal.SubjectKey(cfg.SubjectID)
	}

	firstRow := cfg.FirstRow
	if firstRow <= 0 {
		firstRow = 1
	}

	cells := make(map[string]interface{})
	for i, row := range rows {
		studentID, ok := studentIDOf(row)
		if !ok {
			continue
		}
		cell := qualify(cfg.SheetName, fmt.Sprintf("%s%d", cfg.AverageColumn, firstRow+i))
		cells[cell] = cellValue(averages[studentID][key])
	}

	if cfg.UpdatedAtCell != "" {
		now := e.journal.Now().In(e.journal.Location())
		cells[qualify(cfg.SheetName, cfg.UpdatedAtCell)] = "UPD: " + now.Format("2 January 15:04")
	}

	if len(cells) == 0 {
		logger.Debug.Printf("Nothing to export to sheet %s", cfg.SheetID)
		return nil
	}
	if err := client.Write(ctx, cfg.SheetID, cells); err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}
	logger.Info.Printf("Exported %d cells to sheet %s", len(cells), cfg.SheetID)
	return nil
}

// qualify prefixes a range with the sheet name unless it already has one.
func qualify(sheetName, rng string) string {
	if sheetName == "" || strings.Contains(rng, "!") {
		return rng
	}
	return sheetName + "!" + rng
}

func studentIDOf(row []interface{}) (int64, bool) {
	if len(row) == 0 {
		return 0, false
	}
	switch v := row[0].(type) {
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil && id > 0
	case float64:
		return int64(v), v > 0
	default:
		return 0, false
	}
}

func cellValue(r scoring.Result) interface{} {
	switch {
	case r.Average != nil:
		return *r.Average
	case r.Percentage != nil:
		return *r.Percentage
	default:
		return noData
	}
}
