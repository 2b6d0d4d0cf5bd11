package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"StockForecast/internal/config"
	"StockForecast/internal/model"
	"StockForecast/internal/outlook"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders v as whole Rupiah with comma thousands separators,
// e.g. 9125.4 -> "Rp 9,125".
func FormatRupiah(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "Rp -"
	}
	d := decimal.NewFromFloat(v).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return "Rp " + sign + groupThousands(d.String())
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatForecast formats one forecast with its outlook into a Telegram message.
func FormatForecast(fc *model.Forecast, o *outlook.Outlook) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔮 <b>%s</b> | %d-day forecast\n", html.EscapeString(fc.Symbol), fc.Days()))
	b.WriteString(fmt.Sprintf("Last close: %s (%s)\n", FormatRupiah(fc.LastClose), fc.LastDate.Format("2006-01-02")))

	if m := fc.Metrics; m != nil {
		b.WriteString(fmt.Sprintf("Daily change: %s (%+.2f%%)\n", signedRupiah(m.DailyChange), m.DailyChangePct))
		b.WriteString(fmt.Sprintf("52w range: %s - %s\n", FormatRupiah(m.Low52w), FormatRupiah(m.High52w)))
		b.WriteString(fmt.Sprintf("Volatility: %.1f%%\n", m.Volatility))
	}
	b.WriteString("\n")

	b.WriteString("📅 <b>Predictions:</b>\n")
	for i, p := range fc.Predictions {
		date := ""
		if i < len(fc.Dates) {
			date = fc.Dates[i].Format("Mon 02 Jan")
		}
		change := 0.0
		if fc.LastClose != 0 {
			change = (p - fc.LastClose) / fc.LastClose * 100
		}
		b.WriteString(fmt.Sprintf("  %s: %s (%+.2f%%)\n", date, FormatRupiah(p), change))
	}

	if o != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)\n", o.Tier.Emoji, o.Tier.Label, o.Trend))
		b.WriteString(fmt.Sprintf("Average predicted: %s (%+.2f%%)\n", FormatRupiah(o.AvgPredicted), o.ExpectedChangePct))
		b.WriteString(fmt.Sprintf("Range: %s - %s\n", FormatRupiah(o.LowPredicted), FormatRupiah(o.HighPredicted)))
		if o.Warning != "" {
			b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(o.Warning)))
		}
	}

	return b.String()
}

func signedRupiah(v float64) string {
	if v > 0 {
		return "+" + FormatRupiah(v)
	}
	return FormatRupiah(v)
}

// FormatDailyDigest summarizes the scheduled run: one line per forecast
// plus the symbols that were skipped.
func FormatDailyDigest(date time.Time, forecasts []*model.Forecast, skipped []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Daily forecast digest</b> | %s\n\n", date.Format("2006-01-02")))

	if len(forecasts) == 0 {
		b.WriteString("No forecasts produced.\n")
	}
	for _, fc := range forecasts {
		o := outlook.Evaluate(fc)
		if o == nil {
			continue
		}
		flag := ""
		if fc.FallbackUsed {
			flag = " *"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b>%s: %s → %s (%+.2f%%, %dd)\n",
			o.Tier.Emoji, html.EscapeString(fc.Symbol), flag,
			FormatRupiah(o.CurrentPrice), FormatRupiah(o.FinalPredicted), o.ExpectedChangePct, fc.Days()))
	}

	if len(skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped: %s\n", html.EscapeString(strings.Join(skipped, ", "))))
	}
	for _, fc := range forecasts {
		if fc.FallbackUsed {
			b.WriteString("\n* scaled with a fallback scaler\n")
			break
		}
	}
	return b.String()
}

// FormatStockList lists the configured stocks.
func FormatStockList(stocks []config.Stock) string {
	var b strings.Builder
	b.WriteString("📋 <b>Available stocks</b>\n\n")
	for _, s := range stocks {
		b.WriteString(fmt.Sprintf("  %s - %s\n", html.EscapeString(s.Ticker), html.EscapeString(s.Name)))
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp(defaultDays, maxDays int) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Commands</b>\n\n")
	b.WriteString(fmt.Sprintf("/predict &lt;ticker&gt; [days] - forecast closing prices (default %d, max %d)\n", defaultDays, maxDays))
	b.WriteString("/stocks - list configured stocks\n")
	b.WriteString("/help - show this message\n")
	return b.String()
}
