package crontab

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Finding is an advisory remark about a grammatically valid record.
type Finding struct {
	Index      int    `json:"index"`
	Expression string `json:"expression"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
}

func (f Finding) String() string {
	if f.Field != "" {
		return fmt.Sprintf("#%d %q %s: %s", f.Index, f.Expression, f.Field, f.Message)
	}
	return fmt.Sprintf("#%d %q: %s", f.Index, f.Expression, f.Message)
}

// Lint cross-checks records the grammar accepts but the scheduler would
// reject or run surprisingly: reversed ranges, zero steps and steps wider
// than the field. The standard cron parser is only used as a validator here.
func Lint(records []*Record) []Finding {
	var findings []Finding
	for i, r := range records {
		expr := r.Expression()
		if _, err := cron.ParseStandard(expr); err != nil {
			findings = append(findings, Finding{
				Index:      i,
				Expression: expr,
				Message:    err.Error(),
			})
		}

		for _, f := range Fields {
			for _, msg := range stepFindings(f, r.Field(f)) {
				findings = append(findings, Finding{
					Index:      i,
					Expression: expr,
					Field:      f.String(),
					Message:    msg,
				})
			}
		}
	}
	return findings
}

func stepFindings(f Field, token string) []string {
	var msgs []string
	for _, item := range strings.Split(token, ",") {
		_, step, ok := strings.Cut(item, "/")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(step)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("step %q is not a number", step))
			continue
		}
		if n >= f.span() {
			msgs = append(msgs, fmt.Sprintf("step %d is not smaller than the %d possible values, the item matches once", n, f.span()))
		}
	}
	return msgs
}
