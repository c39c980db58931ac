package providers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"StockInsight/pkg/util"
)

// flexNumber accepts a JSON number or a numeric string. Placeholders such as
// "None" or "-" leave it unset.
type flexNumber struct {
	value decimal.Decimal
	set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.value, n.set = d, true
	return nil
}

func (n flexNumber) Valid() bool              { return n.set }
func (n flexNumber) Decimal() decimal.Decimal { return n.value }

func (n flexNumber) Float() float64 {
	f, _ := n.value.Float64()
	return f
}

// Ptr is nil when unset, for FormatOptional.
func (n flexNumber) Ptr() *float64 {
	if !n.set {
		return nil
	}
	f := n.Float()
	return &f
}

// flexDate accepts unix seconds (number or string) or a timestamp string and
// keeps only the calendar date.
type flexDate string

func (d *flexDate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '"' {
		sec, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return nil
		}
		*d = flexDate(util.DateFromUnix(sec))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, ok := util.ParseTime(s); ok {
		*d = flexDate(util.Date(t))
		return nil
	}
	*d = flexDate(util.DatePrefix(s))
	return nil
}
