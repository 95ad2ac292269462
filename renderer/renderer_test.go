package renderer

import (
	"io/fs"
	"slices"
	"strings"
	"testing"
	"text/template"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func USD(v float64) microcap.Money { return microcap.M(v, "USD") }

// table is a markdown table parsed back from a rendered document.
type table struct {
	header []string
	rows   [][]string
}

// parseMarkdown returns the headings and the tables of src.
func parseMarkdown(t *testing.T, src string) (headings []string, tables []table) {
	t.Helper()
	source := []byte(src)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	cells := func(n ast.Node) []string {
		var res []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			res = append(res, strings.TrimSpace(string(c.Text(source))))
		}
		return res
	}
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			headings = append(headings, string(n.Text(source)))
		case *east.Table:
			var tb table
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				switch c.(type) {
				case *east.TableHeader:
					tb.header = cells(c)
				case *east.TableRow:
					tb.rows = append(tb.rows, cells(c))
				}
			}
			tables = append(tables, tb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk markdown: %v", err)
	}
	return headings, tables
}

func lower(xs []string) []string {
	res := make([]string, len(xs))
	for i, x := range xs {
		res[i] = strings.ToLower(x)
	}
	return res
}

// dailyReport builds the report of 2025-07-01: X hits its stop loss, Y has
// no price and Z is up 10%.
func dailyReport(t *testing.T) *microcap.DailyReport {
	t.Helper()
	buyOn, on := date.MustParse("2025-06-27"), date.MustParse("2025-07-01")
	l := microcap.NewLedger(USD(100))
	for _, b := range []struct {
		ticker      string
		shares      int
		price, stop float64
	}{
		{"X", 6, 5.77, 4.90},
		{"Y", 1, 10, 0},
		{"Z", 2, 10, 8},
	} {
		if _, err := l.Buy(buyOn, b.ticker, microcap.Q(b.shares), USD(b.price), USD(b.stop)); err != nil {
			t.Fatalf("Buy(%s): %v", b.ticker, err)
		}
	}
	quotes := []microcap.Quote{
		{Ticker: "X", On: on, Close: USD(4.85), PreviousClose: USD(6)},
		{Ticker: "Y", Err: &microcap.NoDataError{Ticker: "Y", On: on}},
		{Ticker: "Z", On: on, Close: USD(11), PreviousClose: USD(10)},
	}
	snap, sold, err := microcap.BuildSnapshot(on, l, l.MarkToMarket(microcap.Prices(quotes)))
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}

	series := microcap.EquitySeries{
		{Date: date.MustParse("2025-06-27"), Equity: USD(100)},
		{Date: date.MustParse("2025-06-30"), Equity: USD(101.38)},
		{Date: on, Equity: snap.Total.Equity},
	}
	m, err := microcap.ComputeMetrics(series, 0.045)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	bench := microcap.Benchmark{Ticker: "^SPX", Series: microcap.BenchmarkSeries([]microcap.Bar{
		{Date: date.MustParse("2025-06-27"), Close: USD(5000)},
		{Date: date.MustParse("2025-06-30"), Close: USD(5050)},
		{Date: on, Close: USD(5100)},
	}, USD(100))}
	bench.Metrics, err = microcap.ComputeMetrics(bench.Series, 0.045)
	if err != nil {
		t.Fatalf("ComputeMetrics(benchmark): %v", err)
	}

	return &microcap.DailyReport{
		Date:     on,
		Snapshot: snap,
		Quotes:   quotes,
		Watch: []microcap.Quote{
			{Ticker: "IWO", On: on, Close: USD(300), PreviousClose: USD(297), Volume: 12345},
			{Ticker: "XBI", Err: &microcap.ProviderUnavailableError{Provider: "eodhd"}},
		},
		Trades:    sold,
		Metrics:   m,
		Benchmark: bench,
	}
}

func TestRenderDaily(t *testing.T) {
	doc := RenderDaily(dailyReport(t))
	if strings.Contains(doc, "error ") {
		t.Fatalf("RenderDaily failed:\n%s", doc)
	}
	headings, tables := parseMarkdown(t, doc)

	wantHeadings := []string{"Daily Results 2025-07-01", "Positions", "Stop Loss Alerts", "Market Watch", "Risk & Return", "$100.00 Invested"}
	if !slices.Equal(headings, wantHeadings) {
		t.Errorf("headings = %q, want %q", headings, wantHeadings)
	}
	if len(tables) != 5 {
		t.Fatalf("got %d tables, want 5 in:\n%s", len(tables), doc)
	}

	// cash is 100 - 34.62 - 10 - 20 + 6*4.85, only Z is valued.
	summary := tables[0]
	if got, want := summary.header, []string{"Total Equity", "$86.48"}; !slices.Equal(got, want) {
		t.Errorf("summary header = %q, want %q", got, want)
	}
	if got, want := summary.rows[0], []string{"Cash Balance", "$64.48"}; !slices.Equal(got, want) {
		t.Errorf("cash row = %q, want %q", got, want)
	}

	positions := tables[1]
	if len(positions.header) != 9 || len(positions.rows) != 3 {
		t.Fatalf("positions table is %d columns x %d rows, want 9 x 3", len(positions.header), len(positions.rows))
	}
	for i, want := range [][2]string{
		{"X", string(microcap.StopLoss)},
		{"Y", string(microcap.NoData)},
		{"Z", string(microcap.Hold)},
	} {
		row := positions.rows[i]
		if row[0] != want[0] || row[8] != want[1] {
			t.Errorf("position row %d = %q, want ticker %s action %q", i, row, want[0], want[1])
		}
	}
	if z := positions.rows[2]; z[5] != "+10.00%" || z[6] != "$22.00" {
		t.Errorf("Z change and value = %q %q, want +10.00%% $22.00", z[5], z[6])
	}
	if !strings.Contains(doc, "No price for Y: excluded from the total.") {
		t.Errorf("missing NO DATA notice in:\n%s", doc)
	}
	if !strings.Contains(doc, "- X: sold 6 shares at $4.85, realized -$5.52") {
		t.Errorf("missing stop-loss alert in:\n%s", doc)
	}

	watch := tables[2]
	if got, want := watch.rows, [][]string{
		{"IWO", "$300.00", "+1.01%", "12345"},
		{"XBI", "-", "-", "-"},
	}; !slices.EqualFunc(got, want, slices.Equal[[]string]) {
		t.Errorf("watch rows = %q, want %q", got, want)
	}

	metrics := tables[3]
	if len(metrics.rows) != 6 {
		t.Errorf("metrics table has %d rows, want 6", len(metrics.rows))
	}
}

func TestRenderDaily_FirstDay(t *testing.T) {
	r := dailyReport(t)
	r.Metrics = microcap.Metrics{}
	r.Benchmark = microcap.Benchmark{}
	r.Watch = nil
	r.Trades = nil
	headings, _ := parseMarkdown(t, RenderDaily(r))
	if want := []string{"Daily Results 2025-07-01", "Positions"}; !slices.Equal(headings, want) {
		t.Errorf("headings = %q, want %q", headings, want)
	}
}

func TestRenderPerformance(t *testing.T) {
	r := dailyReport(t)
	r.Metrics.Sortino = microcap.Ratio{Err: &microcap.DegenerateSeriesError{Metric: "sortino", Reason: "no negative return"}}
	doc := RenderPerformance(r.Metrics, r.Benchmark)
	headings, tables := parseMarkdown(t, doc)
	if want := []string{"Performance 2025-06-27 to 2025-07-01", "$100.00 Invested"}; !slices.Equal(headings, want) {
		t.Errorf("headings = %q, want %q", headings, want)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if got, want := tables[0].header, []string{"Metric", "Portfolio", "^SPX"}; !slices.Equal(got, want) {
		t.Errorf("header = %q, want %q", got, want)
	}
	sortino := tables[0].rows[4]
	if sortino[0] != "Sortino Ratio" || sortino[1] != "undefined" {
		t.Errorf("sortino row = %q, want undefined portfolio ratio", sortino)
	}
	if !strings.Contains(doc, "The portfolio did not beat ^SPX.") {
		t.Errorf("missing verdict in:\n%s", doc)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	r := dailyReport(t)
	day := func(d string, equity float64) microcap.Snapshot {
		return microcap.Snapshot{Date: date.MustParse(d), Total: microcap.Total{
			Value: USD(0), PnL: USD(0), Cash: USD(equity), Equity: USD(equity),
		}}
	}
	h := microcap.NewHistory(day("2025-06-27", 100), day("2025-06-30", 101.38), r.Snapshot)

	headings, tables := parseMarkdown(t, HistoryMarkdown(h, 2))
	if want := []string{"Equity History"}; !slices.Equal(headings, want) {
		t.Errorf("headings = %q, want %q", headings, want)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if got, want := lower(tables[0].header), []string{"date", "positions", "value", "pnl", "cash", "equity"}; !slices.Equal(got, want) {
		t.Errorf("header = %q, want %q", got, want)
	}
	if len(tables[0].rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tables[0].rows))
	}
	last := tables[0].rows[1]
	if last[0] != "2025-07-01" || last[1] != "2" || last[5] != "$86.48" {
		t.Errorf("last row = %q", last)
	}

	if _, tables := parseMarkdown(t, HistoryMarkdown(microcap.NewHistory(), 0)); len(tables) != 0 {
		t.Errorf("empty history rendered %d tables", len(tables))
	}
}

func TestTradesMarkdown(t *testing.T) {
	r := dailyReport(t)
	buy := microcap.Trade{
		Date: date.MustParse("2025-06-27"), Ticker: "X", Reason: microcap.ManualBuy,
		Shares: microcap.Q(6), Price: USD(5.77), CostBasis: USD(34.62), Memo: "biotech catalyst",
	}
	_, tables := parseMarkdown(t, TradesMarkdown(append([]microcap.Trade{buy}, r.Trades...)))
	if len(tables) != 1 || len(tables[0].rows) != 2 {
		t.Fatalf("want one table of 2 trades, got %v", tables)
	}
	if got := tables[0].rows[0]; got[2] != "MANUAL_BUY" || got[6] != "-" || got[7] != "biotech catalyst" {
		t.Errorf("buy row = %q", got)
	}
	if got := tables[0].rows[1]; got[2] != "STOP_LOSS_SELL" || got[6] != "-$5.52" {
		t.Errorf("sell row = %q", got)
	}
}

func TestTemplatesParse(t *testing.T) {
	files, err := fs.Glob(templates, "*.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded template")
	}
	for _, f := range files {
		content, err := fs.ReadFile(templates, f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := template.New(f).Funcs(funcs).Parse(string(content)); err != nil {
			t.Errorf("template %s: %v", f, err)
		}
	}
}
