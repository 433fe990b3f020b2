// Package pricing keeps the original price, final price and discount of a book
// consistent while one of them is being edited.
//
// The reconciler is a pure reducer: every edit is an Event applied to a State,
// and the LastEdited tag decides which of the other two fields is derived. No
// field is ever recomputed from the field that derived it, so edits cannot feed
// back into each other.
package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownField is returned when a field name cannot be parsed.
var ErrUnknownField = errors.New("unknown price field")

// Field names one of the three price inputs.
type Field int

const (
	FieldNone Field = iota
	FieldOriginal
	FieldFinal
	FieldDiscount
)

var fieldNames = map[Field]string{
	FieldNone:     "",
	FieldOriginal: "original_price",
	FieldFinal:    "final_price",
	FieldDiscount: "discount_percent",
}

func (f Field) String() string {
	return fieldNames[f]
}

// ParseField accepts both the JSON names and their short forms.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FieldNone, nil
	case "original_price", "original", "originalprice":
		return FieldOriginal, nil
	case "final_price", "final", "finalprice":
		return FieldFinal, nil
	case "discount_percent", "discount", "discountpercent":
		return FieldDiscount, nil
	}
	return FieldNone, ErrUnknownField
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// State is the price triple of one book-form editing session.
type State struct {
	OriginalPrice   float64 `json:"original_price"`
	FinalPrice      float64 `json:"final_price"`
	DiscountPercent float64 `json:"discount_percent"`
	LastEdited      Field   `json:"last_edited"`
}

// Event is a single edit of one field.
type Event struct {
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Defaults is the state of an empty form.
func Defaults() State {
	return State{}
}

// FromBook loads a stored triple. Nothing is derived; the values are only
// brought inside the invariants.
func FromBook(originalPrice, finalPrice, discountPercent float64) State {
	s := State{
		OriginalPrice:   nonNegative(originalPrice),
		FinalPrice:      nonNegative(finalPrice),
		DiscountPercent: clampPercent(discountPercent),
	}
	s.FinalPrice = roundWhole(s.FinalPrice)
	return s
}

// Reduce applies ev to s and returns the new state.
func Reduce(s State, ev Event) State {
	switch ev.Field {
	case FieldOriginal:
		return s.OnOriginalPriceChange(ev.Value)
	case FieldFinal:
		return s.OnFinalPriceChange(ev.Value)
	case FieldDiscount:
		return s.OnDiscountChange(ev.Value)
	}
	return s.sanitized()
}

// Apply parses raw form input and reduces it into s.
func Apply(s State, field Field, raw string) State {
	return Reduce(s, Event{Field: field, Value: ToNumber(raw)})
}

// OnOriginalPriceChange makes the original price authoritative. A set discount
// drives the final price; otherwise a positive final price drives the discount.
func (s State) OnOriginalPriceChange(v float64) State {
	s = s.sanitized()
	v = nonNegative(v)
	if s.LastEdited == FieldOriginal && s.OriginalPrice == v && s.agrees() {
		return s
	}

	s.OriginalPrice = v
	s.LastEdited = FieldOriginal
	switch {
	case s.DiscountPercent != 0:
		s.FinalPrice = finalFrom(v, s.DiscountPercent)
	case s.FinalPrice > 0 && v > 0:
		s.DiscountPercent = discountFrom(v, s.FinalPrice)
	}
	return s.settle()
}

// OnDiscountChange clamps v to [0, 100] and derives the final price from it.
func (s State) OnDiscountChange(v float64) State {
	s = s.sanitized()
	v = clampPercent(v)
	s.DiscountPercent = v
	s.LastEdited = FieldDiscount
	if s.OriginalPrice > 0 {
		s.FinalPrice = finalFrom(s.OriginalPrice, v)
	}
	return s.settle()
}

// OnFinalPriceChange derives the discount from the entered final price.
func (s State) OnFinalPriceChange(v float64) State {
	s = s.sanitized()
	v = nonNegative(v)
	s.FinalPrice = v
	s.LastEdited = FieldFinal
	if s.OriginalPrice > 0 {
		s.DiscountPercent = discountFrom(s.OriginalPrice, v)
	}
	return s.settle()
}

// OnOriginalPriceCleared drops the original price without taking the edit
// focus away from the field the user was changing.
func (s State) OnOriginalPriceCleared() State {
	s = s.sanitized()
	s.OriginalPrice = 0
	return s.settle()
}

// settle clears the field that would have been derived from a zero original
// price.
func (s State) settle() State {
	if s.OriginalPrice != 0 {
		return s
	}
	switch s.LastEdited {
	case FieldDiscount:
		s.FinalPrice = 0
	case FieldFinal:
		s.DiscountPercent = 0
	}
	return s
}

// agrees reports whether either derivation from the original price would leave
// s unchanged. A final price entered by hand keeps its own value even when the
// rounded discount maps back to a slightly different final price.
func (s State) agrees() bool {
	if s.OriginalPrice > 0 && s.FinalPrice > 0 && s.DiscountPercent == discountFrom(s.OriginalPrice, s.FinalPrice) {
		return true
	}
	return s.DiscountPercent != 0 && s.FinalPrice == finalFrom(s.OriginalPrice, s.DiscountPercent)
}

func (s State) sanitized() State {
	s.OriginalPrice = nonNegative(s.OriginalPrice)
	s.FinalPrice = nonNegative(s.FinalPrice)
	s.DiscountPercent = clampPercent(s.DiscountPercent)
	return s
}

// ToNumber parses form input. Anything that is not a finite decimal number
// becomes 0. The syntax is checked by decimal; the conversion goes through
// strconv so that an enormous exponent costs nothing.
func ToNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if _, err := decimal.NewFromString(raw); err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// finalFrom is round(original * (1 - discount/100)), never negative.
func finalFrom(original, discount float64) float64 {
	factor := one.Sub(decimal.NewFromFloat(discount).Div(hundred))
	final := decimal.NewFromFloat(original).Mul(factor).Round(0)
	if final.IsNegative() {
		return 0
	}
	return final.InexactFloat64()
}

// discountFrom is clamp(round((original - final) / original * 100), 0, 100).
// The caller guarantees original > 0.
func discountFrom(original, final float64) float64 {
	o := decimal.NewFromFloat(original)
	pct := o.Sub(decimal.NewFromFloat(final)).Div(o).Mul(hundred).Round(0)
	return clampPercent(pct.InexactFloat64())
}

func roundWhole(v float64) float64 {
	return decimal.NewFromFloat(v).Round(0).InexactFloat64()
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
