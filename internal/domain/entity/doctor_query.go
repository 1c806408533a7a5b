package entity

import (
	"github.com/shopspring/decimal"
)

// DoctorQuery is a store-level query for doctors.
// Used by repository layer to avoid coupling with listing state.
// Empty fields add no predicate.
type DoctorQuery struct {
	Specialty          string
	Location           string
	MinExperienceYears int
	MinRating          float64
	Gender             string
	Facilities         []string   // clinic_name IN
	Languages          []string   // languages && (overlap)
	AvailableDays      []string   // available_days && (overlap)
	SearchTerm         string     // ILIKE on name OR specialty OR location
	FeeRanges          []FeeRange // OR of ranges, NULL fee never matches

	SortColumn string
	SortDesc   bool
	Offset     int
	Limit      int
}

// FeeRange is a consultation fee bucket. Bounds are inclusive; an
// unbounded range has no Max.
type FeeRange struct {
	Token string
	Min   decimal.Decimal
	Max   decimal.NullDecimal
}

var feeRanges = []FeeRange{
	{Token: "100-300", Min: decimal.NewFromInt(100), Max: decimal.NewNullDecimal(decimal.NewFromInt(300))},
	{Token: "300-500", Min: decimal.NewFromInt(300), Max: decimal.NewNullDecimal(decimal.NewFromInt(500))},
	{Token: "500-800", Min: decimal.NewFromInt(500), Max: decimal.NewNullDecimal(decimal.NewFromInt(800))},
	{Token: "800-1000", Min: decimal.NewFromInt(800), Max: decimal.NewNullDecimal(decimal.NewFromInt(1000))},
	{Token: "1000+", Min: decimal.NewFromInt(1000)},
}

// FeeRangeTokens lists the bucket vocabulary in ascending order.
func FeeRangeTokens() []string {
	tokens := make([]string, len(feeRanges))
	for i, r := range feeRanges {
		tokens[i] = r.Token
	}
	return tokens
}

func LookupFeeRange(token string) (FeeRange, bool) {
	for _, r := range feeRanges {
		if r.Token == token {
			return r, true
		}
	}
	return FeeRange{}, false
}

// Contains reports whether fee falls inside the bucket.
func (r FeeRange) Contains(fee decimal.Decimal) bool {
	if fee.LessThan(r.Min) {
		return false
	}
	return !r.Max.Valid || fee.LessThanOrEqual(r.Max.Decimal)
}

// MatchesFeeRanges reports whether fee falls in any bucket named by tokens.
// No tokens means no constraint; a missing fee never matches a constraint.
func MatchesFeeRanges(fee decimal.NullDecimal, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	if !fee.Valid {
		return false
	}
	for _, token := range tokens {
		if r, ok := LookupFeeRange(token); ok && r.Contains(fee.Decimal) {
			return true
		}
	}
	return false
}
