package shop

import (
	"regexp"
)

// Order directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

var (
	// <field> (asc|desc), direction anchored at the end only.
	orderSuffixPattern = regexp.MustCompile(`(?i)([a-z_0-9.]+) (asc|desc)$`)
	// (+|-)<field>, first match anywhere in the expression.
	orderSignPattern = regexp.MustCompile(`(?i)([+\-]?)([a-z_0-9.]+)`)
)

// ParseOrder converts an ordering expression into the "<field> <direction>"
// form the shop understands. Two forms are accepted:
//
//	price desc   passed through unchanged
//	-price       "price desc"; "+price" and "price" give "price asc"
//
// The suffix form is tried first.
func ParseOrder(expr string) (string, error) {
	if orderSuffixPattern.MatchString(expr) {
		return expr, nil
	}

	matches := orderSignPattern.FindStringSubmatch(expr)
	if matches == nil {
		return "", newResourceError(KindUnsupportedOrderExpression, "cannot understand ordering expression")
	}

	direction := OrderAsc
	if matches[1] == "-" {
		direction = OrderDesc
	}

	return matches[2] + " " + direction, nil
}
