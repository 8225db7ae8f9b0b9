package domain

import (
	"fmt"
	"strconv"
	"time"
)

// FormatINR renders paise as rupees with Indian digit grouping, e.g. ₹12,34,567.50.
func FormatINR(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	rupees := strconv.FormatInt(paise/100, 10)
	return fmt.Sprintf("%s₹%s.%02d", sign, groupIndian(rupees), paise%100)
}

// groupIndian inserts commas as 3 digits then groups of 2.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	out := ""
	for len(head) > 2 {
		out = "," + head[len(head)-2:] + out
		head = head[:len(head)-2]
	}
	return head + out + "," + tail
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func FormatMonth(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2006")
}
