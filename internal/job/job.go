// Package job defines the fully resolved job description consumed by the
// plan layer. Values arrive already merged and validated by the config
// collaborator; the domains here are the closed whitelists both sides
// agree on.
package job

import (
	"fmt"

	"github.com/isldpipe/isldpipe/internal/schema"
)

// UniqueUnit selects the key field used to deduplicate rows before counting.
type UniqueUnit string

const (
	UnitPublication UniqueUnit = "publication"
	UnitApplication UniqueUnit = "application"
	UnitFamily      UniqueUnit = "family"
	UnitGroup       UniqueUnit = "group"
	UnitNone        UniqueUnit = "none"
)

// Column returns the store column backing the uniqueness unit, or "" for
// UnitNone.
func (u UniqueUnit) Column() string {
	switch u {
	case UnitPublication:
		return "publ_number"
	case UnitApplication:
		return "app_number"
	case UnitFamily:
		return "patf_id"
	case UnitGroup:
		return "dipg_id"
	}
	return ""
}

// CountryMode controls whether the scope's country predicates apply.
type CountryMode string

const (
	// CountryFiltered applies the configured country predicates.
	CountryFiltered CountryMode = "filtered"
	// CountryUnrestricted disables every country predicate, even when
	// countries or prefixes were supplied.
	CountryUnrestricted CountryMode = "unrestricted"
)

// Granularity is the calendar period used for time-series buckets.
type Granularity string

const (
	BucketMonth Granularity = "month"
	BucketYear  Granularity = "year"
)

// DeclDatePolicy picks which date wins when deriving the declaration date.
type DeclDatePolicy string

const (
	SignatureFirst DeclDatePolicy = "signature_first"
	ReflectedFirst DeclDatePolicy = "reflected_first"
)

// NegativeLagPolicy decides what happens to a negative declaration lag.
type NegativeLagPolicy string

const (
	LagKeep NegativeLagPolicy = "keep"
	LagZero NegativeLagPolicy = "zero"
	LagNull NegativeLagPolicy = "null"
	LagDrop NegativeLagPolicy = "drop"
)

// Generation flag names accepted in a scope filter.
var GenFlagColumns = map[string]string{
	"2G": "gen_2g",
	"3G": "gen_3g",
	"4G": "gen_4g",
	"5G": "gen_5g",
	"6G": "gen_6g",
}

// Essential flag names accepted in a scope filter.
var EssFlagColumns = map[string]string{
	"standard": "ess_standard",
	"project":  "ess_project",
}

// Scope is the population filter applied before any aggregation. A nil or
// empty field means "no predicate". Flag maps contain entries only for
// flags the job cares about; a configured false matches stored false only,
// never absence.
type Scope struct {
	Companies       []string // substring match, case-normalized
	Countries       []string // exact match on the free-text country field
	CountryPrefixes []string // two-letter prefix, e.g. "JP" matches "JP JAPAN"
	VersionPrefixes []string // "18" matches version "18.x.y"
	Specs           []string // exact spec-number match
	DateFrom        string   // inclusive ISO bound on application date
	DateTo          string
	GenFlags        map[string]bool
	EssFlags        map[string]bool
	CountryMode     CountryMode
}

// Policies are the enrichment knobs.
type Policies struct {
	DeclDate     DeclDatePolicy
	NegativeLag  NegativeLagPolicy
	SentinelDate string // epoch placeholder treated as absent during enrichment
}

// Extra carries template-specific parameters.
type Extra struct {
	Countries  []string // analysis country buckets (two-letter keys)
	IncludeAll bool     // roll up a synthetic ALL bucket over every row
	TopK       int      // result cardinality limit for templates C and E
	OutFile    string   // export file name override
}

// Spec is one fully resolved job description.
type Spec struct {
	ID          string
	Template    string
	Description string
	Scope       Scope
	Unique      UniqueUnit
	Policies    Policies
	Bucket      Granularity
	Extra       Extra
}

// DefaultCountries is the analysis bucket list used when a job supplies none.
var DefaultCountries = []string{"JP", "US", "CN", "EP", "KR"}

// Validate checks the closed value domains. It is the last line of defense:
// the config collaborator validates the same domains before a Spec is built.
func (s *Spec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("job: missing id")
	}
	switch s.Unique {
	case UnitPublication, UnitApplication, UnitFamily, UnitGroup, UnitNone:
	default:
		return fmt.Errorf("job %s: invalid unique unit %q", s.ID, s.Unique)
	}
	switch s.Scope.CountryMode {
	case CountryFiltered, CountryUnrestricted:
	default:
		return fmt.Errorf("job %s: invalid country mode %q", s.ID, s.Scope.CountryMode)
	}
	switch s.Bucket {
	case BucketMonth, BucketYear:
	default:
		return fmt.Errorf("job %s: invalid time bucket granularity %q", s.ID, s.Bucket)
	}
	for name := range s.Scope.GenFlags {
		if _, ok := GenFlagColumns[name]; !ok {
			return fmt.Errorf("job %s: unknown generation flag %q", s.ID, name)
		}
	}
	for name := range s.Scope.EssFlags {
		if _, ok := EssFlagColumns[name]; !ok {
			return fmt.Errorf("job %s: unknown essential flag %q", s.ID, name)
		}
	}
	if col := s.Unique.Column(); col != "" {
		if !isKeyCandidate(col) {
			return fmt.Errorf("job %s: unit column %q is not a key candidate", s.ID, col)
		}
	}
	return nil
}

func isKeyCandidate(col string) bool {
	for _, c := range schema.KeyCandidates() {
		if c == col {
			return true
		}
	}
	return false
}

// Normalize fills defaulted fields on a freshly built Spec.
func (s *Spec) Normalize() {
	if s.Scope.CountryMode == "" {
		s.Scope.CountryMode = CountryFiltered
	}
	if s.Unique == "" {
		s.Unique = UnitPublication
	}
	if s.Bucket == "" {
		s.Bucket = BucketMonth
	}
	if s.Policies.DeclDate == "" {
		s.Policies.DeclDate = SignatureFirst
	}
	if s.Policies.NegativeLag == "" {
		s.Policies.NegativeLag = LagKeep
	}
	if s.Policies.SentinelDate == "" {
		s.Policies.SentinelDate = "1900-01-01"
	}
	if len(s.Extra.Countries) == 0 {
		s.Extra.Countries = DefaultCountries
	}
	if s.Extra.TopK <= 0 {
		s.Extra.TopK = 10
	}
}
