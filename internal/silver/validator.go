// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

package silver

import (
	"strings"
	"time"

	"github.com/medallion-analytics/medallion/internal/models"
)

// Kind selects the coercion applied to a field once it passes the
// required-presence check.
type Kind int

const (
	// KindText trims the value.
	KindText Kind = iota

	// KindCategory trims and lowercases the value.
	KindCategory

	// KindTimestamp parses to a UTC instant.
	KindTimestamp

	// KindDate parses to a date-normalized UTC instant.
	KindDate

	// KindNumeric coerces leniently to a nullable number.
	KindNumeric

	// KindNonNegativeNumeric additionally rejects negative values when
	// the field is required.
	KindNonNegativeNumeric
)

// Rule is one field of an entity schema.
type Rule struct {
	Field    string
	Kind     Kind
	Required bool
}

// Schema is the entity-specific contract applied by Validate.
type Schema struct {
	Entity string
	Rules  []Rule
}

// Coerced is an accepted record: the original fields plus the typed
// values produced by coercion. Optional fields that failed coercion are
// simply absent from the typed maps.
type Coerced struct {
	Rec   models.RawRecord
	Text  map[string]string
	Times map[string]time.Time
	Nums  map[string]*float64
}

// Time returns the coerced instant for a field and whether it parsed.
func (c Coerced) Time(field string) (time.Time, bool) {
	t, ok := c.Times[field]
	return t, ok
}

// Num returns the coerced number for a field, nil when absent or
// non-numeric.
func (c Coerced) Num(field string) *float64 {
	return c.Nums[field]
}

// Validate partitions a raw batch into accepted records (all coercions
// succeeded for required fields, identifiers non-blank) and rejected
// quarantine rows labeled with the first defect found. It never fails;
// a defective record always yields a labeled quarantine row.
func (s Schema) Validate(batch []models.RawRecord) ([]Coerced, []models.RejectedRecord) {
	accepted := make([]Coerced, 0, len(batch))
	var rejected []models.RejectedRecord

	for _, rec := range batch {
		c, reason := s.coerce(rec)
		if reason != "" {
			rejected = append(rejected, models.RejectedRecord{
				Fields:     rec.Fields,
				SourceLine: rec.SourceLine,
				Reason:     reason,
			})
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted, rejected
}

// coerce applies every rule to one record. It returns a non-empty reason
// tag ("Defect:field") on the first rule violation.
func (s Schema) coerce(rec models.RawRecord) (Coerced, string) {
	c := Coerced{
		Rec:   rec,
		Text:  make(map[string]string),
		Times: make(map[string]time.Time),
		Nums:  make(map[string]*float64),
	}

	for _, rule := range s.Rules {
		raw := rec.Get(rule.Field)

		// Absence of a required field is its own defect class, checked
		// before any parse so "missing" never masquerades as "malformed".
		if rule.Required && isNullText(raw) {
			return c, models.ReasonMissingRequiredField + ":" + rule.Field
		}

		switch rule.Kind {
		case KindText, KindCategory:
			v := raw
			if rule.Kind == KindCategory {
				v = strings.ToLower(v)
			}
			c.Text[rule.Field] = v

		case KindTimestamp:
			t, ok := ParseTimestamp(raw)
			if !ok {
				if rule.Required {
					return c, models.ReasonUnparseableTimestamp + ":" + rule.Field
				}
				continue
			}
			c.Times[rule.Field] = t

		case KindDate:
			d, ok := ParseDate(raw)
			if !ok {
				if rule.Required {
					return c, models.ReasonUnparseableDate + ":" + rule.Field
				}
				continue
			}
			c.Times[rule.Field] = d

		case KindNumeric, KindNonNegativeNumeric:
			n := ParseNumeric(raw)
			if rule.Required {
				if n == nil {
					return c, models.ReasonInvalidNumeric + ":" + rule.Field
				}
				if rule.Kind == KindNonNegativeNumeric && *n < 0 {
					return c, models.ReasonInvalidNumeric + ":" + rule.Field
				}
			}
			c.Nums[rule.Field] = n
		}
	}
	return c, ""
}
