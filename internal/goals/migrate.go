// Package goals normalizes the per-user goal-settings blob across its three
// historical shapes and applies goal edits on top of the canonical form.
package goals

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Settings is the canonical goal-settings shape. Keys are 4-digit year
// strings; an absent key means no goal is set for that year, never zero.
type Settings struct {
	FinalAssetGoals    map[string]float64 `json:"finalAssetGoals"`
	AnnualDepositGoals map[string]float64 `json:"annualDepositGoals"`
}

// NewSettings returns an empty canonical settings value.
func NewSettings() Settings {
	return Settings{
		FinalAssetGoals:    map[string]float64{},
		AnnualDepositGoals: map[string]float64{},
	}
}

// Migrate normalizes a stored goal blob of any historical shape into the
// canonical form. It is pure and idempotent: canonical input comes back
// unchanged, and malformed input degrades to empty settings rather than
// erroring. Shape detection is by key presence, first match wins:
//
//  1. finalAssetGoals / annualDepositGoals → already canonical
//  2. yearlyGoals / monthlyGoals → second-generation maps
//  3. anything else → first-generation scalars, keyed under the current year
func Migrate(raw json.RawMessage) Settings {
	return migrateAt(raw, strconv.Itoa(time.Now().Year()))
}

func migrateAt(raw json.RawMessage, year string) Settings {
	keys := map[string]json.RawMessage{}
	if len(raw) > 0 {
		// Malformed JSON leaves keys empty and falls through to the
		// scalar path, which then produces empty settings.
		_ = json.Unmarshal(raw, &keys)
	}

	if _, ok := keys["finalAssetGoals"]; ok {
		return decodeCanonical(raw)
	}
	if _, ok := keys["annualDepositGoals"]; ok {
		return decodeCanonical(raw)
	}

	_, hasYearly := keys["yearlyGoals"]
	_, hasMonthly := keys["monthlyGoals"]
	if hasYearly || hasMonthly {
		return migrateV2(raw)
	}

	return migrateV1(raw, year)
}

func decodeCanonical(raw json.RawMessage) Settings {
	var s Settings
	_ = json.Unmarshal(raw, &s)
	if s.FinalAssetGoals == nil {
		s.FinalAssetGoals = map[string]float64{}
	}
	if s.AnnualDepositGoals == nil {
		s.AnnualDepositGoals = map[string]float64{}
	}
	return s
}

// migrateV2 maps yearlyGoals verbatim and reduces monthlyGoals ("YYYY-MM"
// keys) to one value per year by keeping the last month's value in key order.
// The reduction is lossy on purpose: it matches the behavior shipped when the
// shape changed, and stored data depends on it. Do not replace with a sum.
func migrateV2(raw json.RawMessage) Settings {
	var v2 struct {
		YearlyGoals  map[string]float64 `json:"yearlyGoals"`
		MonthlyGoals map[string]float64 `json:"monthlyGoals"`
	}
	_ = json.Unmarshal(raw, &v2)

	s := NewSettings()
	for year, amount := range v2.YearlyGoals {
		s.FinalAssetGoals[year] = amount
	}

	months := make([]string, 0, len(v2.MonthlyGoals))
	for month := range v2.MonthlyGoals {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		if len(month) < 4 {
			continue
		}
		s.AnnualDepositGoals[month[:4]] = v2.MonthlyGoals[month]
	}
	return s
}

// migrateV1 reads the original scalar pair. Positive values land under the
// given year; non-positive or absent values produce no entry.
func migrateV1(raw json.RawMessage, year string) Settings {
	var v1 struct {
		YearlyGoal  float64 `json:"yearlyGoal"`
		MonthlyGoal float64 `json:"monthlyGoal"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &v1)
	}

	s := NewSettings()
	if v1.YearlyGoal > 0 {
		s.FinalAssetGoals[year] = v1.YearlyGoal
	}
	if v1.MonthlyGoal > 0 {
		s.AnnualDepositGoals[year] = v1.MonthlyGoal
	}
	return s
}
