package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Chamber identifies the assembly a political group or official belongs to.
type Chamber string

const (
	ChamberAssembly Chamber = "assemblee"
	ChamberSenate   Chamber = "senat"
)

// DatasetType names one external source's full record set.
type DatasetType string

const (
	DatasetDeputies          DatasetType = "deputes"
	DatasetSenators          DatasetType = "senateurs"
	DatasetMunicipalOfficers DatasetType = "maires"
	DatasetCommunes          DatasetType = "communes"
	DatasetVotes             DatasetType = "scrutins"
)

// AllDatasets lists every dataset in default run order.
func AllDatasets() []DatasetType {
	return []DatasetType{
		DatasetDeputies,
		DatasetSenators,
		DatasetMunicipalOfficers,
		DatasetCommunes,
		DatasetVotes,
	}
}

// JobStatus is the lifecycle state of a sync job.
type JobStatus string

const (
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Entity is a normalized row matched against existing rows by its natural key only.
type Entity interface {
	// KeyColumns returns the columns of the unique natural key.
	KeyColumns() []string
	// KeyValues returns the natural key values, in KeyColumns order.
	KeyValues() []any
	Validate() error
}

// StringArray stores a slice of strings in SQLite as JSON.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StringArray{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("failed to scan StringArray")
	}
}
