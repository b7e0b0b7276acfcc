// Package schema defines the durable relation: its column catalogue, header
// aliases, normalization assignments, and DDL. The catalogue is the single
// source of truth for ingestion and for the operation library's column
// references; no identifier outside this package ever reaches generated SQL.
package schema

// TableName is the one durable relation. Everything else the pipeline
// creates is an ephemeral scratch relation owned by a single job run.
const TableName = "isld_pure"

// Kind tags a column with its logical type, which selects the normalization
// function and the failure-statistics bucket during ingestion.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindBool
	KindDate
	KindPatentNo
)

// Column describes one column of the durable relation.
type Column struct {
	Name     string   // SQL column name
	Aliases  []string // accepted source header spellings (matched normalized)
	Kind     Kind
	Affinity string // SQLite affinity: INTEGER | TEXT
	NotNull  bool
	KeyCand  bool // uniqueness-key candidate
}

// Derived key and meta column names, referenced by ingestion and the
// operation library.
const (
	ColCompanyKey = "company_key"
	ColCountryKey = "country_key"
	ColSrcRownum  = "src_rownum"
)

// Columns returns the full column catalogue in insertion order. The two
// derived keys and the source-row number carry no aliases: they are computed
// at ingestion, never read from the export.
func Columns() []Column {
	return []Column{
		// Declaration identifiers.
		{Name: "iprd_id", Aliases: []string{"IPRD_ID"}, Kind: KindInt, Affinity: "INTEGER"},
		{Name: "dipg_id", Aliases: []string{"DIPG_ID"}, Kind: KindInt, Affinity: "INTEGER", KeyCand: true},
		{Name: "patf_id", Aliases: []string{"DIPG_PATF_ID", "Family ID"}, Kind: KindInt, Affinity: "INTEGER", KeyCand: true},

		// Patent identifiers.
		{Name: "publ_number", Aliases: []string{"PUBL_NUMBER", "Publication Number"}, Kind: KindPatentNo, Affinity: "TEXT", KeyCand: true},
		{Name: "app_number", Aliases: []string{"PATT_APPLICATION_NUMBER", "Application Number"}, Kind: KindPatentNo, Affinity: "TEXT", KeyCand: true},

		// Company and country.
		{Name: "company_name", Aliases: []string{"COMP_LEGAL_NAME", "Legal Name", "Company Legal Name"}, Kind: KindText, Affinity: "TEXT"},
		{Name: "country_text", Aliases: []string{"Country_Of_Registration", "Country of Registration"}, Kind: KindText, Affinity: "TEXT"},

		// Dates. The export carries "YYYY-MM-DD HH:MM:SS" timestamps; only
		// the calendar date survives normalization.
		{Name: "sig_date", Aliases: []string{"IPRD_SIGNATURE_DATE", "Signature Date"}, Kind: KindDate, Affinity: "TEXT"},
		{Name: "ref_date", Aliases: []string{"Reflected_Date", "Reflected Date"}, Kind: KindDate, Affinity: "TEXT"},
		{Name: "app_date", Aliases: []string{"PBPA_APP_DATE", "Application Date"}, Kind: KindDate, Affinity: "TEXT"},

		// Standard / specification.
		{Name: "spec_number", Aliases: []string{"TGPP_NUMBER", "3GPP Number", "Spec Number"}, Kind: KindText, Affinity: "TEXT"},
		{Name: "spec_version", Aliases: []string{"TGPV_VERSION", "3GPP Version", "Version"}, Kind: KindText, Affinity: "TEXT"},
		{Name: "standard", Aliases: []string{"Standard"}, Kind: KindText, Affinity: "TEXT"},
		{Name: "decl_type", Aliases: []string{"Patent_Type", "IPRD_TYPE", "Declaration Type"}, Kind: KindText, Affinity: "TEXT"},

		// Generation flags (tri-state: 1, 0, or absent).
		{Name: "gen_2g", Aliases: []string{"2G"}, Kind: KindBool, Affinity: "INTEGER"},
		{Name: "gen_3g", Aliases: []string{"3G"}, Kind: KindBool, Affinity: "INTEGER"},
		{Name: "gen_4g", Aliases: []string{"4G"}, Kind: KindBool, Affinity: "INTEGER"},
		{Name: "gen_5g", Aliases: []string{"5G"}, Kind: KindBool, Affinity: "INTEGER"},
		{Name: "gen_6g", Aliases: []string{"6G"}, Kind: KindBool, Affinity: "INTEGER"},

		// Essentiality flags (tri-state).
		{Name: "ess_standard", Aliases: []string{"Ess_To_Standard", "Essential To Standard"}, Kind: KindBool, Affinity: "INTEGER"},
		{Name: "ess_project", Aliases: []string{"Ess_To_Project", "Essential To Project"}, Kind: KindBool, Affinity: "INTEGER"},

		// Free text.
		{Name: "title_en", Aliases: []string{"PBPA_TITLEEN"}, Kind: KindText, Affinity: "TEXT"},
		{Name: "normalized_patent", Aliases: []string{"Normalized_Patent"}, Kind: KindText, Affinity: "TEXT"},

		// Derived lookup keys, computed from company_name / country_text.
		{Name: ColCompanyKey, Kind: KindText, Affinity: "TEXT"},
		{Name: ColCountryKey, Kind: KindText, Affinity: "TEXT"},

		// Strictly increasing read-order row number; the deterministic
		// tie-break for uniqueness resolution.
		{Name: ColSrcRownum, Kind: KindInt, Affinity: "INTEGER", NotNull: true},
	}
}

// KeyCandidates returns the columns eligible as a uniqueness unit.
func KeyCandidates() []string {
	var out []string
	for _, c := range Columns() {
		if c.KeyCand {
			out = append(out, c.Name)
		}
	}
	return out
}
