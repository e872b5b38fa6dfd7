package models

// MResources describes everything a pipeline expects to exist in the warehouse before it loads.
// Empty names are skipped. CreateContainers controls whether the database and schema
// are created or only referenced.
type MResources struct {
	Warehouse        MComputeDef
	Database         string
	Schema           string
	CreateContainers bool
	Tables           []MTableDef
	Stage            *MStageDef
}

type MComputeDef struct {
	Name               string
	Size               string
	AutoSuspendSeconds int
	AutoResume         bool
	InitiallySuspended bool
}

type MTableDef struct {
	Name    string
	Columns []MColumnDef
}

// MColumnDef types use the warehouse vocabulary (DOUBLE, INT, VARCHAR(n), TIMESTAMP).
type MColumnDef struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	Default    string // literal SQL, e.g. 'direct'
}

type MStageDef struct {
	Name       string
	URL        string
	FileFormat MFileFormat
}

type MFileFormat struct {
	Type                      string
	SkipHeader                int
	FieldOptionallyEnclosedBy string
}

// MCopySpec is one bulk-copy of a staged file into a table.
type MCopySpec struct {
	Table string
	Stage string
	File  string
}

// MValidationResult is the outcome of the post-load sanity query.
type MValidationResult struct {
	Table    string   `json:"table"`
	RowCount int64    `json:"row_count"`
	AvgClose *float64 `json:"avg_close"`
}
