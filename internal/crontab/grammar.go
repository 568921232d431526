package crontab

import (
	"strconv"
	"strings"
)

// Field identifies one of the five schedule columns of a task line.
type Field int

const (
	FieldMinute Field = iota
	FieldHour
	FieldDayOfMonth
	FieldMonth
	FieldDayOfWeek
)

// Fields lists the schedule columns in line order.
var Fields = [...]Field{FieldMinute, FieldHour, FieldDayOfMonth, FieldMonth, FieldDayOfWeek}

var fieldNames = [...]string{
	FieldMinute:     "minute",
	FieldHour:       "hour",
	FieldDayOfMonth: "day-of-month",
	FieldMonth:      "month",
	FieldDayOfWeek:  "day-of-week",
}

func (f Field) String() string {
	if f < FieldMinute || f > FieldDayOfWeek {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

type fieldBounds struct {
	min       int
	max       int
	maxDigits int
	names     map[string]int
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var dayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

var bounds = [...]fieldBounds{
	FieldMinute:     {min: 0, max: 59, maxDigits: 2},
	FieldHour:       {min: 0, max: 23, maxDigits: 2},
	FieldDayOfMonth: {min: 1, max: 31, maxDigits: 2},
	FieldMonth:      {min: 1, max: 12, maxDigits: 2, names: monthNames},
	FieldDayOfWeek:  {min: 0, max: 6, maxDigits: 1, names: dayNames},
}

// Validate checks token against the field grammar:
//
//	*  |  */N  |  VALUE[-VALUE][/N] {, VALUE[-VALUE][/N]}
//
// VALUE is a number within the field bounds or, for month and day-of-week,
// a three letter name in any case.
func (f Field) Validate(token string) error {
	if f < FieldMinute || f > FieldDayOfWeek || !f.valid(token) {
		return &FieldError{Field: f, Token: token}
	}
	return nil
}

func (f Field) valid(token string) bool {
	if token == "*" {
		return true
	}
	if step, ok := strings.CutPrefix(token, "*/"); ok {
		return isDigits(step)
	}

	b := bounds[f]
	for _, item := range strings.Split(token, ",") {
		if !b.validItem(item) {
			return false
		}
	}
	return true
}

func (b fieldBounds) validItem(item string) bool {
	span, step, hasStep := strings.Cut(item, "/")
	if hasStep && !isDigits(step) {
		return false
	}

	lo, hi, isRange := strings.Cut(span, "-")
	if !b.validValue(lo) {
		return false
	}
	return !isRange || b.validValue(hi)
}

func (b fieldBounds) validValue(v string) bool {
	if isDigits(v) {
		if len(v) > b.maxDigits {
			return false
		}
		n, err := strconv.Atoi(v)
		return err == nil && n >= b.min && n <= b.max
	}
	if b.names == nil {
		return false
	}
	_, ok := b.names[strings.ToLower(v)]
	return ok
}

// span returns the number of distinct values the field can take.
func (f Field) span() int {
	return bounds[f].max - bounds[f].min + 1
}

// trimLeadingDigits returns the longest suffix of token that satisfies the
// field grammar after dropping a run of leading digits ("559" -> "59").
func (f Field) trimLeadingDigits(token string) (string, bool) {
	for i := 1; i < len(token); i++ {
		if !isDigit(token[i-1]) {
			return "", false
		}
		if f.valid(token[i:]) {
			return token[i:], true
		}
	}
	return "", false
}

// looksLikeSchedule reports whether token is shaped like a schedule field at
// all, which separates "wrong value" from "the command started too early".
// Letters only count when they spell a month or day name.
func looksLikeSchedule(token string) bool {
	for i := 0; i < len(token); {
		c := token[i]
		switch {
		case isDigit(c), c == '*', c == '/', c == ',', c == '-':
			i++
		case isLetter(c):
			j := i
			for j < len(token) && isLetter(token[j]) {
				j++
			}
			if !isScheduleName(token[i:j]) {
				return false
			}
			i = j
		default:
			return false
		}
	}
	return token != ""
}

func isScheduleName(s string) bool {
	s = strings.ToLower(s)
	_, month := monthNames[s]
	_, day := dayNames[s]
	return month || day
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}
