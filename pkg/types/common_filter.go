package types

import (
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
)

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Validate rejects filters on columns outside allowed. Field names end up in
// SQL verbatim, so callers must always validate before Build.
func (f *CommonFilter) Validate(allowed []string) error {
	if f == nil {
		return fmt.Errorf("nil filter")
	}
	if !lo.Contains(allowed, f.Field) {
		return fmt.Errorf("filter on field %q is not supported", f.Field)
	}
	if len(f.Values) == 0 {
		return fmt.Errorf("filter on field %q has no values", f.Field)
	}
	switch f.Operator {
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return fmt.Errorf("%s filter on field %q needs two values", f.Operator, f.Field)
		}
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq, CommonFilterOperatorLt, CommonFilterOperatorLte,
		CommonFilterOperatorGt, CommonFilterOperatorGte, CommonFilterOperatorIn:
	default:
		return fmt.Errorf("unsupported filter operator: %s", f.Operator)
	}
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorRange, CommonFilterOperatorDateRange:
		if len(f.Values) < 2 {
			return
		}
		// date_range is half-open so consecutive days never overlap
		upper := clause.Expression(clause.Lte{Column: clause.Column{Name: f.Field}, Value: f.Values[1]})
		if f.Operator == CommonFilterOperatorDateRange {
			upper = clause.Lt{Column: clause.Column{Name: f.Field}, Value: f.Values[1]}
		}
		clause.And(clause.Gte{Column: clause.Column{Name: f.Field}, Value: f.Values[0]}, upper).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: clause.Column{Name: f.Field}, Values: f.Values}.Build(builder)
	default:
		return
	}
}

// CommonFilters joins filters with AND; an empty list matches everything.
type CommonFilters []*CommonFilter

func (fs CommonFilters) Build(builder clause.Builder) {
	if len(fs) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(fs))
	for _, f := range fs {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
