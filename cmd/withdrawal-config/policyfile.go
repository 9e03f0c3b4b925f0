package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"fund-planning-api/workflow"

	"gopkg.in/yaml.v3"
)

// policyFile is the seed document:
//
//	policies:
//	  - module_type: predict
//	    allowed_statuses: [SUBMITTED]
//	    time_limit_hours: 72
//	    max_attempts: 2
//	    require_approval: true
type policyFile struct {
	Policies []policyEntry `yaml:"policies"`
}

type policyEntry struct {
	ModuleType      string   `yaml:"module_type"`
	AllowedStatuses []string `yaml:"allowed_statuses"`
	TimeLimitHours  int      `yaml:"time_limit_hours"`
	MaxAttempts     *int     `yaml:"max_attempts"`
	RequireApproval bool     `yaml:"require_approval"`
	AllowResubmit   bool     `yaml:"allow_resubmit"`
}

// parsePolicyFile decodes and validates every entry. Unknown keys, duplicate
// modules and a missing max_attempts are errors; nothing is returned unless
// the whole file is valid.
func parsePolicyFile(r io.Reader) ([]workflow.WithdrawalConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc policyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("policy file is empty")
		}
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if len(doc.Policies) == 0 {
		return nil, errors.New("policy file has no policies")
	}

	seen := make(map[string]bool, len(doc.Policies))
	configs := make([]workflow.WithdrawalConfig, 0, len(doc.Policies))
	var errs []error
	for i, entry := range doc.Policies {
		module := strings.TrimSpace(entry.ModuleType)
		if seen[module] {
			errs = append(errs, fmt.Errorf("policies[%d]: duplicate module_type %q", i, module))
			continue
		}
		seen[module] = true

		if entry.MaxAttempts == nil {
			errs = append(errs, fmt.Errorf("policies[%d] (%s): max_attempts is required", i, module))
			continue
		}
		statuses, err := workflow.ParseStatuses(entry.AllowedStatuses)
		if err != nil {
			errs = append(errs, fmt.Errorf("policies[%d] (%s): %w", i, module, err))
			continue
		}
		cfg := workflow.WithdrawalConfig{
			ModuleType:      module,
			AllowedStatuses: statuses,
			TimeLimitHours:  entry.TimeLimitHours,
			MaxAttempts:     *entry.MaxAttempts,
			RequireApproval: entry.RequireApproval,
			AllowResubmit:   entry.AllowResubmit,
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("policies[%d] (%s): %w", i, module, err))
			continue
		}
		configs = append(configs, cfg)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return configs, nil
}
