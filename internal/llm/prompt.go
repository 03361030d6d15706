package llm

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/bobmcallan/stock-compare/internal/models"
)

// SystemPrompt instructs the model how to compare the two tables.
const SystemPrompt = "You are a financial assistant that will retrieve two tables of financial market data and will summarize the comparative performance in text, in full detail with highlights for each stock and also a conclusion with a markdown output. BE VERY STRICT ON YOUR OUTPUT"

// MaxPromptRows caps the rows sent per series. Longer series keep their
// first and last MaxPromptRows/2 rows around an ellipsis line.
const MaxPromptRows = 300

// BuildComparisonPrompt returns the system and user messages for one
// comparative-performance request.
func BuildComparisonPrompt(s1, s2 *models.PriceSeries) []Message {
	user := fmt.Sprintf("This is the %s stock data : %s, this is %s stock data: %s",
		s1.Ticker, FormatTable(s1), s2.Ticker, FormatTable(s2))

	return []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: user},
	}
}

// FormatTable renders a series as a fixed-width text table.
func FormatTable(s *models.PriceSeries) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tOpen\tHigh\tLow\tClose\tAdj Close\tVolume\t")

	n := s.Len()
	half := MaxPromptRows / 2
	for i, bar := range s.Bars {
		if n > MaxPromptRows && i == half {
			fmt.Fprintln(tw, "...\t...\t...\t...\t...\t...\t...\t")
		}
		if n > MaxPromptRows && i >= half && i < n-half {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume)
	}
	tw.Flush()

	fmt.Fprintf(&b, "\n[%d rows x 7 columns]", n)
	return b.String()
}
