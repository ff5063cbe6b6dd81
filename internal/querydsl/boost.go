package querydsl

import "strings"

// splitBoost separates a fields entry such as "product_name^3" into its bare
// name and boost text. Everything after the first '^' is the boost, kept
// verbatim and never validated.
func splitBoost(entry string) (name, boost string) {
	name, boost, _ = strings.Cut(entry, "^")
	return name, boost
}

// joinBoost re-attaches a boost to a field name. An empty boost is dropped.
func joinBoost(name, boost string) string {
	if boost == "" {
		return name
	}
	return name + "^" + boost
}
