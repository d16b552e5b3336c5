package common

import (
	"fmt"
	"path"
)

// JobMessage is published by huffserver and consumed by huffworker.
type JobMessage struct {
	UID              string `json:"UID"`
	OriginalFilePath string `json:"OriginalFilePath"`
	FreqTablePath    string `json:"FreqTablePath"`
	Canonical        bool   `json:"Canonical,omitempty"`
}

// Job result states.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ResultMessage is published by huffworker once a job has been handled.
type ResultMessage struct {
	UID           string `json:"UID"`
	Status        string `json:"Status"`
	CodeTablePath string `json:"CodeTablePath,omitempty"`
	Error         string `json:"Error,omitempty"`
}

// Object names within a job's directory.
const (
	FreqTableObject = "frequency_table.json"
	CodeTableObject = "code_table.json"
)

// JobObject returns the path of a named object belonging to a job.
func JobObject(jobID, name string) string {
	return fmt.Sprintf("%s/%s", jobID, name)
}

// OriginalObject returns the path under which an uploaded file is stored.
func OriginalObject(jobID, filename string) string {
	return JobObject(jobID, "original_"+path.Base(filename))
}

func contentTypeFor(object string) string {
	if path.Ext(object) == ".json" {
		return "application/json"
	}
	return "application/octet-stream"
}
