package query

import (
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
)

func Eq(path string, value any) Restriction {
	return NewRestriction(path, operators.Eq(value))
}

func Ne(path string, value any) Restriction {
	return NewRestriction(path, operators.Ne(value))
}

func Gt(path string, value any) Restriction {
	return NewRestriction(path, operators.Gt(value))
}

func Ge(path string, value any) Restriction {
	return NewRestriction(path, operators.Ge(value))
}

func Lt(path string, value any) Restriction {
	return NewRestriction(path, operators.Lt(value))
}

func Le(path string, value any) Restriction {
	return NewRestriction(path, operators.Le(value))
}

func Between(path string, lo, hi any) Restriction {
	return NewRestriction(path, operators.NewBetween(lo, hi))
}

func Like(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewLike(value, true, mode))
}

func NotLike(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewNotLike(value, true, mode))
}

func ILike(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewLike(value, false, mode))
}

func NotILike(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewNotLike(value, false, mode))
}

func Token(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewToken(value, false, mode))
}

func NotToken(path, value string, mode operators.MatchMode) Restriction {
	return NewRestriction(path, operators.NewNotToken(value, false, mode))
}

func In(path string, values ...any) Restriction {
	return NewRestriction(path, operators.NewIn(values...))
}

func NotIn(path string, values ...any) Restriction {
	return NewRestriction(path, operators.NewNotIn(values...))
}

func IsNull(path string) Restriction {
	return NewRestriction(path, operators.IsNull())
}

func IsNotNull(path string) Restriction {
	return NewRestriction(path, operators.IsNotNull())
}

func IsEmpty(path string) Restriction {
	return NewRestriction(path, operators.IsEmpty())
}
