package google

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"shopflow/internal/reconcile"
)

// valueInputOption matches what a human typing into the sheet would get:
// links become links, checkmarks stay text.
const valueInputOption = "USER_ENTERED"

// SheetsClient adapts the Google Sheets API to the pipeline's RecordStore
// boundary for a single spreadsheet.
type SheetsClient struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

func NewSheetsClient(ctx context.Context, credentialsFile, spreadsheetID string, logger *slog.Logger) (*SheetsClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsClient{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// ReadRange returns the cell values of readRange as strings, row-major.
func (c *SheetsClient) ReadRange(ctx context.Context, readRange string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		rows = append(rows, cells)
	}
	c.logger.Debug("sheets.read_range", "range", readRange, "rows", len(rows))
	return rows, nil
}

// BatchWrite applies all cell updates in one batched request.
func (c *SheetsClient) BatchWrite(ctx context.Context, updates []reconcile.CellUpdate) error {
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  u.Range,
			Values: [][]interface{}{{u.Value}},
		})
	}
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	c.logger.Debug("sheets.batch_write", "cells", len(updates))
	return nil
}

// WriteCell writes a single cell.
func (c *SheetsClient) WriteCell(ctx context.Context, cellRef, value string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, cellRef, vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return classify(err)
	}
	return nil
}
