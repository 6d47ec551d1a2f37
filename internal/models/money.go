package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a decimal amount. It is persisted as BSON Decimal128 so that
// server-side $inc on funding totals stays exact, and rendered in JSON as a string.
type Money struct {
	decimal.Decimal
}

// ZeroMoney returns a zero amount
func ZeroMoney() Money {
	return Money{decimal.Zero}
}

// NewMoney wraps a decimal
func NewMoney(d decimal.Decimal) Money {
	return Money{d}
}

// MoneyFromInt builds an amount from a whole number
func MoneyFromInt(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// MoneyFromFloat builds an amount from a float64 (used for JSON inputs that arrive as numbers)
func MoneyFromFloat(v float64) Money {
	return Money{decimal.NewFromFloat(v)}
}

// ParseMoney parses a decimal string such as "250.00"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d}, nil
}

func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }
func (m Money) Sub(o Money) Money { return Money{m.Decimal.Sub(o.Decimal)} }

// Equal compares by value, so 250 and 250.00 are equal
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// GTE reports m >= o
func (m Money) GTE(o Money) bool { return m.Decimal.GreaterThanOrEqual(o.Decimal) }

// FloorZero returns m, or zero when m is negative
func (m Money) FloorZero() Money {
	if m.Decimal.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// MarshalBSONValue stores the amount as Decimal128
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money to decimal128: %w", err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue accepts Decimal128 plus the numeric and string types older documents may hold
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return fmt.Errorf("decimal128 to money: %w", err)
		}
		m.Decimal = d
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return fmt.Errorf("string to money: %w", err)
		}
		m.Decimal = d
	case bsontype.Null, bsontype.Undefined:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot decode BSON %s into Money", t)
	}
	return nil
}

// SumMoney adds up a list of amounts
func SumMoney(amounts ...Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
