package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrEmptyExpression is returned when the rule expression is blank.
var ErrEmptyExpression = errors.New("recurrence expression is empty")

// Rule is a validated RFC 5545 recurrence expression. Evaluation is
// timezone naive by contract: callers normalize instants to UTC before
// calling, and no zone conversion happens here.
type Rule struct {
	expr string
}

// Parse validates the expression and returns a Rule. Malformed or empty
// expressions are rejected here, at creation time, never at first use.
func Parse(expr string) (*Rule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	if _, err := rrule.StrToRRule(expr); err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", expr, err)
	}
	return &Rule{expr: expr}, nil
}

// String returns the original expression.
func (r *Rule) String() string {
	return r.expr
}

// NextOccurrence returns the first occurrence strictly after after+minGap.
// The minimum gap keeps a successor from overlapping the occurrence it
// follows; callers default it to the meeting's duration. The second return
// is false when a finite rule (COUNT/UNTIL) yields no further occurrences.
func (r *Rule) NextOccurrence(after time.Time, minGap time.Duration) (time.Time, bool) {
	rr, err := rrule.StrToRRule(r.expr)
	if err != nil {
		// Parse already validated the expression.
		return time.Time{}, false
	}
	start := after.UTC()
	rr.DTStart(start)
	next := rr.After(start.Add(minGap), false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
