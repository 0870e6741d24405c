package translatable

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionError captures resolver metadata alongside the originating error.
type ResolutionError struct {
	Engine string
	Rule   string
	Field  string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("translatable: %s resolver %s field=%s: %v", e.Engine, describeRule(e.Rule), e.Field, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapResolverError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var resolutionErr *ResolutionError
	if errors.As(err, &resolutionErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "translatable:") {
		return err
	}
	return fmt.Errorf("translatable: %s resolver: %w", engine, err)
}

func wrapResolutionError(engine, rule, field string, err error) error {
	if err == nil {
		return nil
	}

	var resolutionErr *ResolutionError
	if errors.As(err, &resolutionErr) {
		if resolutionErr.Engine == "" {
			resolutionErr.Engine = engine
		}
		if resolutionErr.Rule == "" {
			resolutionErr.Rule = rule
		}
		if resolutionErr.Field == "" {
			resolutionErr.Field = field
		}
		return resolutionErr
	}

	return &ResolutionError{
		Engine: engine,
		Rule:   rule,
		Field:  field,
		Err:    err,
	}
}
