// Package store persists canonical jobs and provider accounts.
package store

import (
	"database/sql"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

// needsUpdate reports whether writing fresh over stored would change
// anything: a mutable field differs or the posting is not active.
func needsUpdate(stored model.StoredJob, fresh model.CanonicalJob) bool {
	if stored.Status != model.StatusActive {
		return true
	}
	return stored.Title != fresh.Title ||
		stored.Description != fresh.Description ||
		stored.Department != fresh.Department ||
		stored.Location != fresh.Location ||
		stored.WorkType != fresh.WorkType ||
		stored.EmploymentType != fresh.EmploymentType ||
		stored.ApplyURL != fresh.ApplyURL ||
		!sameSalary(stored.Salary, fresh.Salary)
}

func sameSalary(a, b *model.Salary) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameBound(a.Min, b.Min) && sameBound(a.Max, b.Max) && strings.EqualFold(a.Currency, b.Currency)
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// salaryColumns flattens a salary for nullable columns.
func salaryColumns(s *model.Salary) (sql.NullFloat64, sql.NullFloat64, string) {
	if s == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}, ""
	}
	var lo, hi sql.NullFloat64
	if s.Min != nil {
		lo = sql.NullFloat64{Float64: *s.Min, Valid: true}
	}
	if s.Max != nil {
		hi = sql.NullFloat64{Float64: *s.Max, Valid: true}
	}
	return lo, hi, s.Currency
}

func salaryFromColumns(lo, hi sql.NullFloat64, currency string) *model.Salary {
	if !lo.Valid && !hi.Valid {
		return nil
	}
	s := &model.Salary{Currency: currency}
	if lo.Valid {
		v := lo.Float64
		s.Min = &v
	}
	if hi.Valid {
		v := hi.Float64
		s.Max = &v
	}
	return s
}
