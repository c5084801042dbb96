package sheet

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RAW stores cells exactly as sent. USER_ENTERED would parse titles like a
// person typing them ('Salem's Lot loses its apostrophe, 007 turns into 7).
const valueInput = "RAW"

// GoogleSheets talks to the first worksheet of a Google spreadsheet.
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetTitle    string
	sheetID       int64
}

// CredentialOption turns a service-account JSON key into a client option
// scoped to spreadsheet access.
func CredentialOption(ctx context.Context, key []byte) (option.ClientOption, error) {
	creds, err := google.CredentialsFromJSON(ctx, key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, opErr("auth", fmt.Errorf("parse service account key: %w", err))
	}
	return option.WithCredentials(creds), nil
}

// NewGoogleSheets connects and resolves the first worksheet.
func NewGoogleSheets(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*GoogleSheets, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, opErr("connect", err)
	}

	ss, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, opErr("connect", fmt.Errorf("get spreadsheet %s: %w", spreadsheetID, err))
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, opErr("connect", fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID))
	}

	props := ss.Sheets[0].Properties
	g := &GoogleSheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetTitle:    props.Title,
		sheetID:       props.SheetId,
	}
	if err := g.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// ensureHeader writes the column names into row 1 of an empty worksheet, so
// the first appended book lands on row 2.
func (g *GoogleSheets) ensureHeader(ctx context.Context) error {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.a1("A1:F1")).Context(ctx).Do()
	if err != nil {
		return opErr("connect", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]interface{}, len(Columns))
	for i, name := range Columns {
		header[i] = name
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err = g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.a1("A1"), vr).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return opErr("connect", fmt.Errorf("write header row: %w", err))
	}
	log.Printf("[sheet] wrote header row to empty worksheet %q", g.sheetTitle)
	return nil
}

func (g *GoogleSheets) a1(ref string) string {
	return "'" + strings.ReplaceAll(g.sheetTitle, "'", "''") + "'!" + ref
}

func (g *GoogleSheets) values(ctx context.Context, op string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.a1("A1:F")).Context(ctx).Do()
	if err != nil {
		return nil, opErr(op, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

func (g *GoogleSheets) ListRows(ctx context.Context) ([]Record, error) {
	rows, err := g.values(ctx, "list")
	if err != nil {
		return nil, err
	}
	return decodeRows(rows), nil
}

func (g *GoogleSheets) AppendRow(ctx context.Context, values []string) error {
	if len(values) != len(Columns) {
		return ErrBadRowWidth
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = cellValue(i+1, v)
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, g.a1("A1"), vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return opErr("append", err)
}

func (g *GoogleSheets) FindRow(ctx context.Context, title string) (int, error) {
	rows, err := g.values(ctx, "find")
	if err != nil {
		return 0, err
	}
	for i, r := range decodeRows(rows) {
		if r["title"] == title {
			return i + FirstDataRow, nil
		}
	}
	return 0, ErrNotFound
}

func (g *GoogleSheets) UpdateCell(ctx context.Context, row, col int, value string) error {
	if row == HeaderRow {
		return ErrHeaderRow
	}
	if row < FirstDataRow {
		return ErrRowOutOfRange
	}
	if err := checkCol(col); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{{cellValue(col, value)}}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.a1(cellRef(col, row)), vr).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	return opErr("update", err)
}

// UpdateCells sends all cells in one batch request; the API applies it as a unit.
func (g *GoogleSheets) UpdateCells(ctx context.Context, row int, values map[int]string) error {
	if row == HeaderRow {
		return ErrHeaderRow
	}
	if row < FirstDataRow {
		return ErrRowOutOfRange
	}

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInput}
	for _, col := range sortedCols(values) {
		if err := checkCol(col); err != nil {
			return err
		}
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  g.a1(cellRef(col, row)),
			Values: [][]interface{}{{values[col]}},
		})
	}

	_, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return opErr("update", err)
}

func (g *GoogleSheets) DeleteRow(ctx context.Context, row int) error {
	if row == HeaderRow {
		return ErrHeaderRow
	}
	if row < FirstDataRow {
		return ErrRowOutOfRange
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         g.sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return opErr("delete", err)
}

func (g *GoogleSheets) Ping(ctx context.Context) error {
	_, err := g.values(ctx, "ping")
	return err
}

// cellRef builds an A1 reference for the six-column sheet.
func cellRef(col, row int) string {
	return fmt.Sprintf("%c%d", rune('A'+col-1), row)
}
