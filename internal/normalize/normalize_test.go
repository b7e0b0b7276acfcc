package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  hello  world ", "hello world", true},
		{"a\t\nb", "a b", true},
		{"unchanged", "unchanged", true},
		{"   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Text(tt.in)
		assert.Equal(t, tt.ok, ok, "Text(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "Text(%q)", tt.in)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"1,234,567", 1234567, true},
		{" 7 ", 7, true},
		{"3.9", 3, true}, // decimals truncate
		{"-12", -12, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Int(tt.in)
		assert.Equal(t, tt.ok, ok, "Int(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "Int(%q)", tt.in)
	}
}

func TestBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "yes", "1", "t", "Y"} {
		v, ok := Bool(s)
		assert.True(t, ok, "Bool(%q) ok", s)
		assert.True(t, v, "Bool(%q)", s)
	}
	for _, s := range []string{"false", "no", "0", "F", "n"} {
		v, ok := Bool(s)
		assert.True(t, ok, "Bool(%q) ok", s)
		assert.False(t, v, "Bool(%q)", s)
	}
	for _, s := range []string{"", "maybe", "2", "on"} {
		_, ok := Bool(s)
		assert.False(t, ok, "Bool(%q) should be absent", s)
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2021-03-05", "2021-03-05", true},
		{"2021/3/5", "2021-03-05", true},
		{"2021.03.05", "2021-03-05", true},
		{"20210305", "2021-03-05", true},
		{"2021-03-05 14:22:01", "2021-03-05", true},
		{"2021-03-05T14:22:01", "2021-03-05", true},
		{"25-12-1999", "1999-12-25", true}, // day > 12 forces day-first
		{"12-25-1999", "1999-12-25", true}, // month position > 12 forces month-first
		{"03-04-2020", "2020-04-03", true}, // ambiguous defaults to day-first
		{"2021-02-29", "", false},          // not a leap year
		{"2020-02-29", "2020-02-29", true},
		{"2021-13-01", "", false},
		{"1750-01-01", "", false}, // below year floor
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Date(tt.in)
		assert.Equal(t, tt.ok, ok, "Date(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "Date(%q)", tt.in)
	}
}

func TestDateIsTotal(t *testing.T) {
	// No input may panic, whatever the shape.
	inputs := []string{
		"9999999999", "----", "0000-00-00", "2021--01--01",
		strings.Repeat("1", 64), "\x00\xff", "T T T",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Date(in) }, "Date(%q)", in)
	}
}

func TestPatentNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"US1234567", "US1234567", true},
		{"us 12-34.567", "US1234567", true},
		{"EP111|EP222|EP333", "EP111", true}, // first token of multi-value
		{"PENDING", "", false},
		{"pending1", "", false},
		{"USPATENTAPPLICATIONPENDING", "", false},
		{"GB9402492PENDING", "", false},
		{"unknown", "", false},
		{"N/A", "", false},
		{"-", "", false},
		{"|EP222", "", false}, // empty first token
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := PatentNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "PatentNumber(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "PatentNumber(%q)", tt.in)
	}
}

func TestCompanyKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"NTT DOCOMO, INC.", "NTT DOCOMO INC", true},
		{"Ericsson  AB", "ERICSSON AB", true},
		{"(empty)", "EMPTY", true},
		{"...", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CompanyKey(tt.in)
		assert.Equal(t, tt.ok, ok, "CompanyKey(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "CompanyKey(%q)", tt.in)
	}
}

func TestCountryKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"JP JAPAN", "JP", true},
		{"us united states", "US", true},
		{"DE", "DE", true},
		{"Japan", "", false},     // leading token not a two-letter code
		{"J2 SOMEWHERE", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CountryKey(tt.in)
		assert.Equal(t, tt.ok, ok, "CountryKey(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "CountryKey(%q)", tt.in)
	}
}
