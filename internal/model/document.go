package model

import (
	"bytes"
	"fmt"

	"github.com/lordgreg/taskcrafter/internal/taskerrors"
	"gopkg.in/yaml.v3"
)

// rawDocument mirrors the on-disk document shape before it is lifted into
// Job/Hook values with their defaults applied.
type rawDocument struct {
	Jobs  []rawJob            `yaml:"jobs"`
	Hooks map[string][]string `yaml:"hooks"`
}

type rawJob struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Plugin    string             `yaml:"plugin"`
	Container *JobContainer      `yaml:"container"`
	Params    map[string]any     `yaml:"params"`
	Input     map[string]string  `yaml:"input"`
	Schedule  string             `yaml:"schedule"`
	OnSuccess []string           `yaml:"on_success"`
	OnFailure []string           `yaml:"on_failure"`
	OnFinish  []string           `yaml:"on_finish"`
	DependsOn []string           `yaml:"depends_on"`
	Enabled   *bool              `yaml:"enabled"`
	Retries   *Retries           `yaml:"retries"`
	Timeout   int                `yaml:"timeout"`
}

// Document is the typed, defaulted in-memory model produced from a parsed
// job file: the job list plus the hook-type-to-job-ids mapping. Hooks are
// resolved into deep-copied Job instances by the hook manager, not here.
// UnknownFields carries any field names the strict decode pass rejected, so
// ValidateSchema can fail the document instead of silently dropping them.
type Document struct {
	Jobs          []*Job
	JobByID       map[string]*Job
	HookJobs      map[HookType][]string
	UnknownFields []string
}

// LoadDocument parses document text into a Document. Unknown hook type
// names are logged and dropped by the caller (the hook manager), not
// rejected here, matching the loader/validator split of responsibility.
func LoadDocument(content []byte) (*Document, error) {
	if len(content) == 0 {
		return nil, taskerrors.ErrNoData
	}

	var raw rawDocument
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", taskerrors.ErrYamlParse, err)
	}

	if raw.Jobs == nil && raw.Hooks == nil {
		return nil, taskerrors.ErrNoData
	}

	doc := &Document{
		JobByID:  make(map[string]*Job, len(raw.Jobs)),
		HookJobs: make(map[HookType][]string, len(raw.Hooks)),
	}

	for _, rj := range raw.Jobs {
		job := NewJob()
		job.ID = rj.ID
		job.Name = rj.Name
		job.Plugin = rj.Plugin
		job.Container = rj.Container
		if rj.Params != nil {
			job.Params = rj.Params
		}
		if rj.Input != nil {
			job.Input = rj.Input
		}
		job.Schedule = rj.Schedule
		job.OnSuccess = rj.OnSuccess
		job.OnFailure = rj.OnFailure
		job.OnFinish = rj.OnFinish
		job.DependsOn = rj.DependsOn
		if rj.Enabled != nil {
			job.Enabled = *rj.Enabled
		}
		if rj.Retries != nil {
			job.Retries = *rj.Retries
		}
		job.Timeout = rj.Timeout

		doc.Jobs = append(doc.Jobs, job)
		doc.JobByID[job.ID] = job
	}

	for hookName, jobIDs := range raw.Hooks {
		doc.HookJobs[HookType(hookName)] = jobIDs
	}

	doc.UnknownFields = detectUnknownFields(content)

	return doc, nil
}

// detectUnknownFields re-decodes content with strict field checking enabled
// (gopkg.in/yaml.v3's Decoder.KnownFields), which the first, lenient pass
// above does not use so that a typo in one job doesn't abort the whole
// document before ValidateSchema gets a chance to report it properly.
func detectUnknownFields(content []byte) []string {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var strict rawDocument
	if err := dec.Decode(&strict); err != nil {
		return []string{err.Error()}
	}
	return nil
}
