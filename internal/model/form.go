package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormValue is a form field that may be sent as a JSON string or number.
type FormValue string

// UnmarshalJSON accepts strings, numbers and null.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form value must be a string or number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// String returns the trimmed raw value.
func (v FormValue) String() string {
	return strings.TrimSpace(string(v))
}

// Decimal parses the value as a decimal number.
func (v FormValue) Decimal() (decimal.Decimal, error) {
	s := strings.ReplaceAll(v.String(), ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(s)
}

// Int parses the leading integer of the value. Out-of-range values saturate
// at the int bounds. Unparseable values yield 0 and ok=false.
func (v FormValue) Int() (n int, ok bool) {
	s := v.String()
	if s == "" {
		return 0, false
	}
	if i, ok := parseInt(s); ok {
		return i, true
	}
	// "1e400" overflows to ±Inf with ErrRange; spelled-out "inf" and "NaN" do not count.
	f, err := strconv.ParseFloat(s, 64)
	if (err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)) || errors.Is(err, strconv.ErrRange) {
		return saturate(math.Trunc(f)), true
	}
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return parseInt(s[:end])
}

// parseInt is strconv.ParseInt with overflow saturated instead of rejected.
func parseInt(s string) (int, bool) {
	i, err := strconv.ParseInt(s, 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(i), true
}

func saturate(f float64) int {
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// StockValue parses a stock field and clamps it to [0, MaxStock].
func (v FormValue) StockValue() int {
	n, _ := v.Int()
	return ClampStock(n)
}
