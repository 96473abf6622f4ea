package acl

import (
	"errors"
	"net/netip"
	"testing"
)

func TestParse_Membership(t *testing.T) {
	tests := []struct {
		name    string
		rules   string
		inside  []string
		outside []string
	}{
		{
			name:    "single address",
			rules:   "192.168.1.10",
			inside:  []string{"192.168.1.10"},
			outside: []string{"192.168.1.11", "192.168.1.9"},
		},
		{
			name:    "cidr boundaries",
			rules:   "10.1.0.0/16",
			inside:  []string{"10.1.0.0", "10.1.255.255", "10.1.128.7"},
			outside: []string{"10.0.255.255", "10.2.0.0"},
		},
		{
			name:    "unaligned cidr is masked",
			rules:   "172.16.5.77/24",
			inside:  []string{"172.16.5.0", "172.16.5.255"},
			outside: []string{"172.16.4.255", "172.16.6.0"},
		},
		{
			name:    "odd prefix length",
			rules:   "192.168.0.0/23",
			inside:  []string{"192.168.0.0", "192.168.1.255"},
			outside: []string{"192.168.2.0"},
		},
		{
			name:    "inclusive range",
			rules:   "10.0.0.1-10.0.0.9",
			inside:  []string{"10.0.0.1", "10.0.0.5", "10.0.0.9"},
			outside: []string{"10.0.0.0", "10.0.0.10"},
		},
		{
			name:    "mixed list with whitespace",
			rules:   " 192.168.0.0/24 , 10.0.0.1-10.0.0.3,8.8.8.8 ",
			inside:  []string{"192.168.0.200", "10.0.0.2", "8.8.8.8"},
			outside: []string{"192.168.1.1", "10.0.0.4", "8.8.4.4"},
		},
		{
			name:    "allow all ipv4",
			rules:   AllowAll,
			inside:  []string{"0.0.0.0", "127.0.0.1", "255.255.255.255"},
			outside: []string{"::1"},
		},
		{
			name:    "ipv6 cidr",
			rules:   "fd00::/8",
			inside:  []string{"fd12:3456::1", "fdff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"},
			outside: []string{"fe80::1", "10.0.0.1"},
		},
		{
			name:    "mapped peer matches ipv4 rule",
			rules:   "127.0.0.0/8",
			inside:  []string{"::ffff:127.0.0.1"},
			outside: []string{"::ffff:128.0.0.1"},
		},
		{
			name:    "host prefix",
			rules:   "1.2.3.4/32",
			inside:  []string{"1.2.3.4"},
			outside: []string{"1.2.3.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := Parse(tt.rules)
			if err != nil {
				t.Fatalf("expected no error parsing '%s', but got '%v'", tt.rules, err)
			}

			for _, addr := range tt.inside {
				if !matcher.MatchesString(addr) {
					t.Errorf("expected '%s' to match '%s'", addr, tt.rules)
				}
			}
			for _, addr := range tt.outside {
				if matcher.MatchesString(addr) {
					t.Errorf("expected '%s' not to match '%s'", addr, tt.rules)
				}
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rules   string
		wantErr error
	}{
		{"bad octet", "300.1.1.1", ErrBadFormatIP},
		{"not an address", "hello", ErrBadFormatIP},
		{"truncated address", "10.0.0", ErrBadFormatIP},
		{"bad prefix length", "10.0.0.0/33", ErrBadFormatCIDR},
		{"bad cidr address", "10.0.0/8", ErrBadFormatCIDR},
		{"empty prefix length", "10.0.0.0/", ErrBadFormatCIDR},
		{"reversed range", "10.0.0.9-10.0.0.1", ErrBadFormatIP},
		{"range missing end", "10.0.0.1-", ErrBadFormatIP},
		{"mixed family range", "10.0.0.1-::1", ErrBadFormatIP},
		{"zone rejected", "fe80::1%eth0", ErrBadFormatIP},
		{"one good one bad", "10.0.0.1,10.0.0.999", ErrBadFormatIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.rules)
			if err == nil {
				t.Fatalf("expected error parsing '%s', but got nil", tt.rules)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error '%v', but got '%v'", tt.wantErr, err)
			}
		})
	}
}

func TestAdd_FailureKeepsPreviousRules(t *testing.T) {
	matcher := New()
	if err := matcher.Add("192.168.0.0/24"); err != nil {
		t.Fatalf("expected no error, but got '%v'", err)
	}
	before := matcher.String()

	err := matcher.Add("10.0.0.1, 10.0.0.0/40")
	if err == nil {
		t.Fatalf("expected malformed update to fail")
	}

	if matcher.String() != before {
		t.Fatalf("rules changed after failed add: '%s' -> '%s'", before, matcher.String())
	}
	if matcher.MatchesString("10.0.0.1") {
		t.Fatalf("entry from failed update became active")
	}
	if !matcher.MatchesString("192.168.0.7") {
		t.Fatalf("previous rule no longer matches")
	}
}

func TestMatcher_EmptyAndClear(t *testing.T) {
	matcher := New()
	if matcher.MatchesString("127.0.0.1") {
		t.Fatalf("empty matcher must not match")
	}

	if err := matcher.Add(""); err != nil {
		t.Fatalf("expected empty rule string to be accepted, but got '%v'", err)
	}
	if matcher.Len() != 0 {
		t.Fatalf("expected no rules from empty string, but got '%d'", matcher.Len())
	}

	matcher.Add("127.0.0.1")
	matcher.Clear()
	if matcher.MatchesString("127.0.0.1") || matcher.Len() != 0 {
		t.Fatalf("expected no rules after clear")
	}

	if matcher.Matches(netip.Addr{}) {
		t.Fatalf("zero address must not match")
	}
	if matcher.MatchesString("garbage") {
		t.Fatalf("unparseable address must not match")
	}
}

func TestMatcher_String(t *testing.T) {
	matcher, err := Parse("10.1.2.3/8, 192.168.0.1-192.168.0.4,1.1.1.1")
	if err != nil {
		t.Fatalf("expected no error, but got '%v'", err)
	}

	want := "10.0.0.0/8,192.168.0.1-192.168.0.4,1.1.1.1"
	if got := matcher.String(); got != want {
		t.Fatalf("expected '%s', but got '%s'", want, got)
	}
}
