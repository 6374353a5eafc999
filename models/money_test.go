package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoneyLimits(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"0.12345678", nil},
		{"0.123456780", nil},
		{"0.123456789", ErrMoneyScale},
		{"9999999999999999999999", nil},
		{"10000000000000000000000", ErrMoneyMagnitude},
		{"-1", ErrMoneyFormat},
		{"1e3", ErrMoneyFormat},
	}
	for _, tc := range cases {
		_, err := ParseMoney(tc.in)
		if !errors.Is(err, tc.want) {
			t.Errorf("ParseMoney(%q) = %v, want %v", tc.in, err, tc.want)
		}
	}
}

func TestFitsMoney(t *testing.T) {
	if !FitsMoney(decimal.RequireFromString("9999999999999999999999.99999999")) {
		t.Fatal("expected column maximum to fit")
	}
	for _, s := range []string{"10000000000000000000000", "0.000000001", "-1"} {
		if FitsMoney(decimal.RequireFromString(s)) {
			t.Errorf("expected %s not to fit", s)
		}
	}
}

func TestMoneyColumnsMatchLimits(t *testing.T) {
	want := fmt.Sprintf("type:decimal(%d,%d)", MoneyPrecision, MoneyScale)
	fields := map[reflect.Type][]string{
		reflect.TypeOf(FundingRound{}):   {"FundingGoal", "CurrentRaised"},
		reflect.TypeOf(Investment{}):     {"Amount"},
		reflect.TypeOf(ChangeProposal{}): {"NewFundingGoal"},
	}
	for typ, names := range fields {
		for _, name := range names {
			f, ok := typ.FieldByName(name)
			if !ok {
				t.Fatalf("%s.%s missing", typ.Name(), name)
			}
			if !strings.Contains(f.Tag.Get("gorm"), want) {
				t.Errorf("%s.%s gorm tag %q does not declare %s", typ.Name(), name, f.Tag.Get("gorm"), want)
			}
		}
	}
}
