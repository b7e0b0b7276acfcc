// Package config loads and validates run configurations. A configuration
// file (YAML or JSON) names the export, the work database, shared defaults,
// and the job list; the embedded CUE schema rejects unknown fields and
// out-of-domain values before any job is built.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/isldpipe/isldpipe/internal/job"
)

// Workbook configures the spreadsheet assembly. The company→pattern table
// drives sheet membership by substring match and is independent of any
// job's scope filter; the two are never combined.
type Workbook struct {
	File      string            `yaml:"file"`
	Companies map[string]string `yaml:"companies"`
}

// Config is a fully loaded, validated run configuration.
type Config struct {
	CSV      string
	DB       string
	OutDir   string
	Workbook Workbook
	Jobs     []job.Spec
}

// knobs are the per-job parameters that can also be set file-wide under
// defaults. A job-level value wins over the default.
type knobs struct {
	Unique       string   `yaml:"unique"`
	Bucket       string   `yaml:"bucket"`
	Countries    []string `yaml:"countries"`
	IncludeAll   *bool    `yaml:"include_all"`
	TopK         int      `yaml:"top_k"`
	DeclDate     string   `yaml:"decl_date"`
	NegativeLag  string   `yaml:"negative_lag"`
	SentinelDate string   `yaml:"sentinel_date"`
	CountryMode  string   `yaml:"country_mode"`
}

type scopeConfig struct {
	Companies       []string        `yaml:"companies"`
	Countries       []string        `yaml:"countries"`
	CountryPrefixes []string        `yaml:"country_prefixes"`
	VersionPrefixes []string        `yaml:"version_prefixes"`
	Specs           []string        `yaml:"specs"`
	DateFrom        string          `yaml:"date_from"`
	DateTo          string          `yaml:"date_to"`
	GenFlags        map[string]bool `yaml:"gen_flags"`
	EssFlags        map[string]bool `yaml:"ess_flags"`
}

type jobConfig struct {
	knobs       `yaml:",inline"`
	ID          string      `yaml:"id"`
	Template    string      `yaml:"template"`
	Description string      `yaml:"description"`
	Scope       scopeConfig `yaml:"scope"`
	OutFile     string      `yaml:"out_file"`
}

type file struct {
	CSV      string      `yaml:"csv"`
	DB       string      `yaml:"db"`
	OutDir   string      `yaml:"out_dir"`
	Defaults knobs       `yaml:"defaults"`
	Jobs     []jobConfig `yaml:"jobs"`
	Workbook Workbook    `yaml:"workbook"`
}

// Load reads, validates, and resolves the configuration at path. YAML is a
// superset of JSON, so both formats go through the same decoder.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return f.build()
}

// validateSchema unifies the decoded document with the embedded CUE
// contract. Any unknown field, wrong type, or out-of-domain value fails
// here, before a single job spec exists.
func validateSchema(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#File"))
	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

func (f *file) build() (*Config, error) {
	cfg := &Config{
		CSV:      f.CSV,
		DB:       f.DB,
		OutDir:   f.OutDir,
		Workbook: f.Workbook,
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "out"
	}

	seen := make(map[string]bool, len(f.Jobs))
	for _, jc := range f.Jobs {
		if seen[jc.ID] {
			return nil, fmt.Errorf("duplicate job id %q", jc.ID)
		}
		seen[jc.ID] = true

		spec := jc.toSpec(f.Defaults)
		spec.Normalize()
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		cfg.Jobs = append(cfg.Jobs, spec)
	}
	return cfg, nil
}

func (jc *jobConfig) toSpec(d knobs) job.Spec {
	spec := job.Spec{
		ID:          jc.ID,
		Template:    jc.Template,
		Description: jc.Description,
		Scope: job.Scope{
			Companies:       jc.Scope.Companies,
			Countries:       jc.Scope.Countries,
			CountryPrefixes: jc.Scope.CountryPrefixes,
			VersionPrefixes: jc.Scope.VersionPrefixes,
			Specs:           jc.Scope.Specs,
			DateFrom:        jc.Scope.DateFrom,
			DateTo:          jc.Scope.DateTo,
			GenFlags:        jc.Scope.GenFlags,
			EssFlags:        jc.Scope.EssFlags,
			CountryMode:     job.CountryMode(pick(jc.CountryMode, d.CountryMode)),
		},
		Unique: job.UniqueUnit(pick(jc.Unique, d.Unique)),
		Policies: job.Policies{
			DeclDate:     job.DeclDatePolicy(pick(jc.DeclDate, d.DeclDate)),
			NegativeLag:  job.NegativeLagPolicy(pick(jc.NegativeLag, d.NegativeLag)),
			SentinelDate: pick(jc.SentinelDate, d.SentinelDate),
		},
		Bucket: job.Granularity(pick(jc.Bucket, d.Bucket)),
	}

	spec.Extra.OutFile = jc.OutFile
	spec.Extra.TopK = jc.TopK
	if spec.Extra.TopK == 0 {
		spec.Extra.TopK = d.TopK
	}
	spec.Extra.Countries = jc.Countries
	if len(spec.Extra.Countries) == 0 {
		spec.Extra.Countries = d.Countries
	}
	// The global rollup defaults on: the aggregate view is the one every
	// report consumer starts from.
	spec.Extra.IncludeAll = true
	if jc.IncludeAll != nil {
		spec.Extra.IncludeAll = *jc.IncludeAll
	} else if d.IncludeAll != nil {
		spec.Extra.IncludeAll = *d.IncludeAll
	}
	return spec
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
