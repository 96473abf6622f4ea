// Address allow-list for connection admission.
// Entries: single address, CIDR (a.b.c.d/n) or inclusive range (a.b.c.d-e.f.g.h), comma separated.
package acl

import (
	"fmt"
	"net/netip"
	"strings"
)

// Rule string meaning "any IPv4 peer"
const AllowAll string = "0.0.0.0/0"

// Creates an empty matcher (matches nothing)
func New() (new *Matcher) {
	new = &Matcher{}
	return
}

// Creates a matcher from a rule string
func Parse(rules string) (matcher *Matcher, err error) {
	matcher = New()
	err = matcher.Add(rules)
	if err != nil {
		matcher = nil
	}
	return
}

// Appends every entry of rules. All-or-nothing: on error the active rules are unchanged.
func (matcher *Matcher) Add(rules string) (err error) {
	var parsed []Rule
	for _, entry := range strings.Split(rules, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var rule Rule
		rule, err = parseRule(entry)
		if err != nil {
			err = fmt.Errorf("invalid acl entry: %w", err)
			return
		}
		parsed = append(parsed, rule)
	}

	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	matcher.rules = append(matcher.rules, parsed...)
	return
}

// Removes all rules
func (matcher *Matcher) Clear() {
	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	matcher.rules = nil
}

// Reports whether addr falls inside any rule
func (matcher *Matcher) Matches(addr netip.Addr) (allowed bool) {
	if !addr.IsValid() {
		return
	}
	addr = addr.Unmap().WithZone("")

	matcher.mu.RLock()
	defer matcher.mu.RUnlock()
	for _, rule := range matcher.rules {
		if rule.contains(addr) {
			allowed = true
			return
		}
	}
	return
}

// String form of Matches. Unparseable input never matches.
func (matcher *Matcher) MatchesString(text string) (allowed bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(text))
	if err != nil {
		return
	}
	allowed = matcher.Matches(addr)
	return
}

func (matcher *Matcher) Len() int {
	matcher.mu.RLock()
	defer matcher.mu.RUnlock()
	return len(matcher.rules)
}

// Copy of the active rules
func (matcher *Matcher) Rules() (rules []Rule) {
	matcher.mu.RLock()
	defer matcher.mu.RUnlock()
	rules = append([]Rule{}, matcher.rules...)
	return
}

// Canonical comma separated rule string
func (matcher *Matcher) String() string {
	matcher.mu.RLock()
	defer matcher.mu.RUnlock()

	parts := make([]string, 0, len(matcher.rules))
	for _, rule := range matcher.rules {
		parts = append(parts, rule.String())
	}
	return strings.Join(parts, ",")
}
