// internal/money/money.go

// Package money 定義貨幣金額型別。
// 金額一律以 int64 的最小貨幣單位（分）保存，所有比較與加減皆為整數運算。
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount 為以「分」為單位的金額。
type Amount int64

// Zero 為零金額。
const Zero Amount = 0

// 小數位數固定為兩位（分）。
const scale = 2

var (
	// ErrSyntax 代表輸入不是合法的十進位數字。
	ErrSyntax = errors.New("amount is not a decimal number")

	// ErrPrecision 代表輸入的小數位數超過兩位。
	ErrPrecision = errors.New("amount has more than two decimal places")

	// ErrRange 代表金額超出 int64 分可表示的範圍。
	ErrRange = errors.New("amount out of range")
)

// 只接受一般十進位寫法，不接受指數；長度上限足以容納 int64 分的範圍。
var (
	decimalText = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)
	maxTextLen  = 32
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64).Shift(-scale)
	minAmount = decimal.NewFromInt(math.MinInt64).Shift(-scale)
)

// FromCents 以分建立金額。
func FromCents(c int64) Amount { return Amount(c) }

// FromUnits 以整數元建立金額，例如 FromUnits(1500) == 1500.00。
func FromUnits(u int64) Amount { return Amount(u * 100) }

// Parse 解析使用者輸入的金額文字（例如 "200"、"12.50"、" 0.01 "）。
// 接受正負號；拒絕 NaN、Inf、指數寫法、非數字字元與超過兩位小數的輸入。
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrSyntax
	}
	if len(s) > maxTextLen {
		return 0, fmt.Errorf("%w: %d characters", ErrRange, len(s))
	}
	if !decimalText.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if !d.Equal(d.Truncate(scale)) {
		return 0, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return Amount(d.Shift(scale).IntPart()), nil
}

// MustParse 同 Parse，失敗時 panic；僅供常數與測試使用。
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cents 回傳以分表示的整數值。
func (a Amount) Cents() int64 { return int64(a) }

// Decimal 轉為 decimal.Decimal。
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -scale)
}

// String 以兩位小數呈現，例如 "1500.00"。
func (a Amount) String() string {
	return a.Decimal().StringFixed(scale)
}

// Add 回傳 a+b；溢位時回傳 ErrRange。
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrRange
	}
	return a + b, nil
}

// Neg 回傳 -a。
func (a Amount) Neg() Amount { return -a }

// IsPositive 回報金額是否大於零。
func (a Amount) IsPositive() bool { return a > 0 }

// MarshalJSON 以帶兩位小數的 JSON 數字輸出（例如 1500.00）。
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON 接受 JSON 數字或字串。
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
