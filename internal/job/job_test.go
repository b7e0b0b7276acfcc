package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueUnitColumn(t *testing.T) {
	assert.Equal(t, "publ_number", UnitPublication.Column())
	assert.Equal(t, "app_number", UnitApplication.Column())
	assert.Equal(t, "patf_id", UnitFamily.Column())
	assert.Equal(t, "dipg_id", UnitGroup.Column())
	assert.Equal(t, "", UnitNone.Column())
}

func TestNormalizeDefaults(t *testing.T) {
	s := &Spec{ID: "j1"}
	s.Normalize()

	assert.Equal(t, UnitPublication, s.Unique)
	assert.Equal(t, CountryFiltered, s.Scope.CountryMode)
	assert.Equal(t, BucketMonth, s.Bucket)
	assert.Equal(t, SignatureFirst, s.Policies.DeclDate)
	assert.Equal(t, LagKeep, s.Policies.NegativeLag)
	assert.Equal(t, "1900-01-01", s.Policies.SentinelDate)
	assert.Equal(t, DefaultCountries, s.Extra.Countries)
	assert.Equal(t, 10, s.Extra.TopK)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	s := &Spec{ID: "j1", Unique: UnitFamily, Bucket: BucketYear}
	s.Extra.TopK = 3
	s.Normalize()

	assert.Equal(t, UnitFamily, s.Unique)
	assert.Equal(t, BucketYear, s.Bucket)
	assert.Equal(t, 3, s.Extra.TopK)
}

func TestValidate(t *testing.T) {
	valid := func() *Spec {
		s := &Spec{ID: "j1"}
		s.Normalize()
		return s
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(s *Spec)
		want   string
	}{
		{"missing id", func(s *Spec) { s.ID = "" }, "missing id"},
		{"bad unit", func(s *Spec) { s.Unique = "fingerprint" }, "invalid unique unit"},
		{"bad country mode", func(s *Spec) { s.Scope.CountryMode = "maybe" }, "invalid country mode"},
		{"bad bucket", func(s *Spec) { s.Bucket = "week" }, "invalid time bucket"},
		{"unknown gen flag", func(s *Spec) { s.Scope.GenFlags = map[string]bool{"7G": true} }, "unknown generation flag"},
		{"unknown ess flag", func(s *Spec) { s.Scope.EssFlags = map[string]bool{"vibe": true} }, "unknown essential flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlagColumnWhitelists(t *testing.T) {
	assert.Len(t, GenFlagColumns, 5)
	assert.Equal(t, "gen_5g", GenFlagColumns["5G"])
	assert.Equal(t, "ess_standard", EssFlagColumns["standard"])
}
