// Package sheets imports budget spreadsheets into the budget_items table.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
)

// Canonical budget columns.
const (
	ColumnItemName        = "item_name"
	ColumnUnit            = "unit"
	ColumnUnitPrice       = "unit_price"
	ColumnPlannedQuantity = "planned_quantity"

	defaultUnit = "Adet"
)

var requiredColumns = []string{ColumnItemName, ColumnUnitPrice, ColumnPlannedQuantity}

// headerAliases maps lower-cased spreadsheet headers to canonical columns.
var headerAliases = map[string]string{
	"malzeme":           ColumnItemName,
	"malzeme adı":       ColumnItemName,
	"kalem":             ColumnItemName,
	"imalat adı":        ColumnItemName,
	"birim":             ColumnUnit,
	"birim fiyat":       ColumnUnitPrice,
	"fiyat":             ColumnUnitPrice,
	"miktar":            ColumnPlannedQuantity,
	"adet":              ColumnPlannedQuantity,
	"bütçelenen miktar": ColumnPlannedQuantity,
}

var (
	ErrNoSheet = errors.New("workbook has no sheets")
	ErrNoRows  = errors.New("sheet has no header row")
)

// MissingColumnsError lists required canonical columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// BudgetRow is one parsed spreadsheet line.
type BudgetRow struct {
	ItemName        string
	Unit            string
	UnitPrice       float64
	PlannedQuantity float64
}

// Queries is the insert used by Importer.
type Queries interface {
	CreateBudgetItems(ctx context.Context, arg []sqlc.CreateBudgetItemsParams) (int64, error)
}

// Importer reads xlsx budgets and appends them for a tenant.
type Importer struct {
	queries Queries
	logger  *slog.Logger
}

// NewImporter creates a budget importer.
func NewImporter(log *slog.Logger, queries Queries) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		queries: queries,
		logger:  log.With(slog.String("service", "sheets")),
	}
}

// Import parses the workbook at path and appends its rows to the tenant's
// budget. The outcome, including validation problems, is returned as text.
func (i *Importer) Import(ctx context.Context, path, tenantID string) string {
	if strings.TrimSpace(tenantID) == "" {
		return "❌ Hata: Şirket kaydın bulunamadı. Önce şirket kodunu gönder (Örn: #ABC)."
	}
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return "❌ Hata: Şirket kaydın bulunamadı. Önce şirket kodunu gönder (Örn: #ABC)."
	}
	rows, err := ReadFirstSheet(path)
	if err != nil {
		i.logger.Warn("read workbook failed", slog.String("path", path), slog.Any("error", err))
		return "❌ Dosya okunamadı: " + err.Error()
	}
	items, err := ParseBudgetRows(rows)
	if err != nil {
		var missing *MissingColumnsError
		if errors.As(err, &missing) {
			return fmt.Sprintf("❌ Hata: Excel dosyasında şu sütunlar eksik: %s. Lütfen 'Malzeme', 'Birim Fiyat', 'Miktar' sütunlarını kontrol et.", strings.Join(missing.Columns, ", "))
		}
		return "❌ Dosya okunamadı: " + err.Error()
	}

	var total float64
	params := make([]sqlc.CreateBudgetItemsParams, 0, len(items))
	for _, item := range items {
		total += item.UnitPrice * item.PlannedQuantity
		params = append(params, sqlc.CreateBudgetItemsParams{
			CompanyID:       pgID,
			ItemName:        item.ItemName,
			Unit:            item.Unit,
			UnitPrice:       item.UnitPrice,
			PlannedQuantity: item.PlannedQuantity,
		})
	}
	if len(params) > 0 {
		if i.queries == nil {
			return "❌ Dosya okunamadı: veritabanı bağlantısı yok"
		}
		if _, err := i.queries.CreateBudgetItems(ctx, params); err != nil {
			i.logger.Error("insert budget items failed", slog.String("tenant_id", tenantID), slog.Any("error", err))
			return "❌ Dosya okunamadı: " + err.Error()
		}
	}
	i.logger.Info("budget imported", slog.String("tenant_id", tenantID), slog.Int("items", len(params)))
	return fmt.Sprintf("✅ Başarılı! %d kalem eklendi. Toplam Bütçe: %s TL.", len(params), FormatMoney(total))
}

// ReadFirstSheet returns every row of the workbook's first sheet. Numeric
// cells come back unformatted so display styles cannot change their value.
func ReadFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// ParseBudgetRows maps the header row to canonical columns and converts the
// remaining rows. Rows without an item name are skipped.
func ParseBudgetRows(rows [][]string) ([]BudgetRow, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	index := make(map[string]int)
	for col, header := range rows[0] {
		canonical, ok := headerAliases[normalizeHeader(header)]
		if !ok {
			continue
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = col
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	items := make([]BudgetRow, 0, len(rows)-1)
	for n, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, index[ColumnItemName]))
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		price, err := parseNumber(cell(row, index[ColumnUnitPrice]))
		if err != nil {
			return nil, fmt.Errorf("row %d: unit price: %w", n+2, err)
		}
		qty, err := parseNumber(cell(row, index[ColumnPlannedQuantity]))
		if err != nil {
			return nil, fmt.Errorf("row %d: quantity: %w", n+2, err)
		}
		unit := defaultUnit
		if col, ok := index[ColumnUnit]; ok {
			if v := strings.TrimSpace(cell(row, col)); v != "" {
				unit = v
			}
		}
		items = append(items, BudgetRow{
			ItemName:        name,
			Unit:            unit,
			UnitPrice:       price,
			PlannedQuantity: qty,
		})
	}
	return items, nil
}

func normalizeHeader(header string) string {
	header = strings.TrimSpace(header)
	if idx := strings.Index(header, "("); idx > 0 {
		header = strings.TrimSpace(header[:idx])
	}
	return strings.ToLower(header)
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount with thousands grouping and two decimals, e.g. 1,234.50.
func FormatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

// parseNumber handles cells stored as text. It accepts "1.250,50 TL", "1250,5" and "1250.5". Blank is zero.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "TL")
	s = strings.TrimSuffix(s, "₺")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}
