package microcap

import (
	"errors"
	"fmt"
	"math"

	"github.com/etnz/microcap/date"
)

// TradingDays is the number of trading days in a year.
const TradingDays = 252

// EquityPoint is the total equity at the close of a day.
type EquityPoint struct {
	Date   date.Date
	Equity Money
}

// EquitySeries is a list of equity points by strictly increasing date.
type EquitySeries []EquityPoint

// Returns computes the simple daily returns of the series.
func (s EquitySeries) Returns() []float64 {
	if len(s) < 2 {
		return nil
	}
	res := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		res = append(res, s[i].Equity.AsFloat()/s[i-1].Equity.AsFloat()-1)
	}
	return res
}

// Ratio is a risk-adjusted ratio that may be undefined for the series.
type Ratio struct {
	Value float64
	Err   error // a *DegenerateSeriesError when undefined
}

// Defined reports whether the ratio could be computed.
func (r Ratio) Defined() bool { return r.Err == nil }

func (r Ratio) String() string {
	if r.Err != nil {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", r.Value)
}

// Metrics are the performance statistics of an equity series.
//
// Returns, volatility and drawdown are fractions: 0.0138 is 1.38%.
type Metrics struct {
	From, To       date.Date
	StartEquity    Money
	EndEquity      Money
	Days           int // number of daily returns
	TotalReturn    float64
	RiskFreePeriod float64 // risk-free return compounded over Days
	Volatility     float64 // annualized
	MaxDrawdown    float64 // non-positive
	MaxDrawdownOn  date.Date
	Sharpe         Ratio
	Sortino        Ratio
}

// Err joins the errors of the undefined ratios.
func (m Metrics) Err() error { return errors.Join(m.Sharpe.Err, m.Sortino.Err) }

// ComputeMetrics computes the statistics of series with an annual risk-free
// rate (0.045 for 4.5%).
//
// Standard deviations are population deviations. Sharpe and Sortino are left
// undefined with a *DegenerateSeriesError instead of failing the whole
// computation; an error is only returned when the series has fewer than two
// points, or when a point other than the last has no equity, which leaves the
// next daily return undefined.
func ComputeMetrics(series EquitySeries, riskFree float64) (Metrics, error) {
	if len(series) < 2 {
		return Metrics{}, &DegenerateSeriesError{Metric: "metrics", Reason: "fewer than two equity points"}
	}
	first, last := series[0], series[len(series)-1]
	if !first.Equity.IsPositive() {
		return Metrics{}, &DegenerateSeriesError{Metric: "metrics", Reason: "initial equity is not positive"}
	}
	for _, p := range series[1 : len(series)-1] {
		if !p.Equity.IsPositive() {
			return Metrics{}, &DegenerateSeriesError{Metric: "metrics", Reason: fmt.Sprintf("equity is %v on %v", p.Equity, p.Date)}
		}
	}

	returns := series.Returns()
	n := len(returns)
	m := Metrics{
		From:        first.Date,
		To:          last.Date,
		StartEquity: first.Equity,
		EndEquity:   last.Equity,
		Days:        n,
		TotalReturn: (last.Equity.AsFloat() - first.Equity.AsFloat()) / first.Equity.AsFloat(),
	}
	m.RiskFreePeriod = math.Pow(1+riskFree, float64(n)/TradingDays) - 1

	std := stddev(returns)
	m.Volatility = std * math.Sqrt(TradingDays)
	m.MaxDrawdown, m.MaxDrawdownOn = maxDrawdown(series)

	excess := m.TotalReturn - m.RiskFreePeriod
	m.Sharpe = ratio("sharpe", excess, std, n)

	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) == 0 {
		m.Sortino = Ratio{Err: &DegenerateSeriesError{Metric: "sortino", Reason: "no negative returns"}}
	} else {
		m.Sortino = ratio("sortino", excess, stddev(negative), n)
	}
	return m, nil
}

func ratio(metric string, excess, std float64, n int) Ratio {
	switch {
	case n == 0:
		return Ratio{Err: &DegenerateSeriesError{Metric: metric, Reason: "no returns"}}
	case std == 0:
		return Ratio{Err: &DegenerateSeriesError{Metric: metric, Reason: "zero volatility"}}
	case math.IsNaN(std) || math.IsInf(std, 0):
		return Ratio{Err: &DegenerateSeriesError{Metric: metric, Reason: "volatility is not finite"}}
	}
	return Ratio{Value: excess / (std * math.Sqrt(float64(n)))}
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var v float64
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}

// maxDrawdown returns the deepest fall from a running peak, and its date.
func maxDrawdown(series EquitySeries) (float64, date.Date) {
	var (
		peak  float64
		worst float64
		on    date.Date
	)
	for i, p := range series {
		e := p.Equity.AsFloat()
		if i == 0 || e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (e - peak) / peak; dd < worst {
			worst, on = dd, p.Date
		}
	}
	return worst, on
}
