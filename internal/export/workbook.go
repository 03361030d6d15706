// Package export writes compared price series to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/stock-compare/internal/models"
)

const (
	// FileName is the download name of the workbook.
	FileName = "stock_data.xlsx"

	// ContentType is the xlsx MIME type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
	dateFormat   = "yyyy-mm-dd"
)

var headers = []interface{}{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// SheetNames returns the sheet names for a pair of tickers, "{TICKER} Data",
// sanitised to Excel's rules and made distinct when the tickers collide.
func SheetNames(ticker1, ticker2 string) (string, string) {
	a := sheetName(ticker1, "")
	b := sheetName(ticker2, "")
	if strings.EqualFold(a, b) {
		b = sheetName(ticker2, " (2)")
	}
	return a, b
}

func sheetName(ticker, suffix string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(ticker))
	clean = strings.Trim(clean, "'")

	tail := " Data" + suffix
	if clean == "" {
		tail = strings.TrimPrefix(tail, " ")
	}
	room := maxSheetName - utf8.RuneCountInString(tail)
	if utf8.RuneCountInString(clean) > room {
		clean = string([]rune(clean)[:room])
	}
	return clean + tail
}

// WriteWorkbook writes s1 and s2 to w as a two-sheet workbook.
func WriteWorkbook(w io.Writer, s1, s2 *models.PriceSeries) error {
	if s1 == nil || s2 == nil {
		return fmt.Errorf("write workbook: both series are required")
	}

	f := excelize.NewFile()
	defer f.Close()

	name1, name2 := SheetNames(s1.Ticker, s2.Ticker)

	if err := f.SetSheetName("Sheet1", name1); err != nil {
		return fmt.Errorf("rename sheet %q: %w", name1, err)
	}
	if _, err := f.NewSheet(name2); err != nil {
		return fmt.Errorf("create sheet %q: %w", name2, err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeSheet(f, name1, s1, styles); err != nil {
		return err
	}
	if err := writeSheet(f, name2, s2, styles); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header int
	date   int
	price  int
	volume int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	datefmt := dateFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &datefmt}); err != nil {
		return s, fmt.Errorf("date style: %w", err)
	}
	// 4 is "#,##0.00", 3 is "#,##0"
	if s.price, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return s, fmt.Errorf("price style: %w", err)
	}
	if s.volume, err = f.NewStyle(&excelize.Style{NumFmt: 3}); err != nil {
		return s, fmt.Errorf("volume style: %w", err)
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet string, series *models.PriceSeries, st sheetStyles) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("sheet %q header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", st.header); err != nil {
		return fmt.Errorf("sheet %q header style: %w", sheet, err)
	}

	for i, b := range series.Bars {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
	}

	if n := series.Len(); n > 0 {
		last := n + 1
		if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", last), st.date); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("F%d", last), st.price); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "G2", fmt.Sprintf("G%d", last), st.volume); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "G", 14); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
