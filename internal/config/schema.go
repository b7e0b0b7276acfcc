package config

// schemaSource is the CUE contract every run configuration must satisfy.
// Field domains mirror the closed whitelists in the job package; closed
// definitions reject unknown fields outright.
const schemaSource = `
#Scope: {
	companies?: [...string]
	countries?: [...string]
	country_prefixes?: [...string]
	version_prefixes?: [...string]
	specs?: [...string]
	date_from?: string
	date_to?: string
	gen_flags?: {[string]: bool}
	ess_flags?: {[string]: bool}
}

#Knobs: {
	unique?: "publication" | "application" | "family" | "group" | "none"
	bucket?: "month" | "year"
	countries?: [...string]
	include_all?: bool
	top_k?: int & >0
	decl_date?: "signature_first" | "reflected_first"
	negative_lag?: "keep" | "zero" | "null" | "drop"
	sentinel_date?: string
	country_mode?: "filtered" | "unrestricted"
}

#Job: #Knobs & {
	id:       string & !=""
	template: "ts_filing_count" | "ts_lag_stats" | "ts_top_specs" | "rank_company_counts" | "heat_spec_company"
	description?: string
	scope?:       #Scope
	out_file?:    string
}

#File: {
	csv: string & !=""
	db:  string & !=""
	out_dir?:  string
	defaults?: #Knobs
	jobs: [#Job, ...#Job]
	workbook?: {
		file?: string
		companies?: {[string]: string}
	}
}
`
