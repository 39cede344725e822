package main

import (
	"slices"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	const ulidID = "01HZX3T1J4K5M6N7P8Q9R0S1T2"
	const uuidID = "0190d3c5-6c2e-7b8a-9f00-1234567890ab"
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"taskboard", ulidID}, []string{"taskboard", "tasks", "show", ulidID}},
		{[]string{"taskboard", "--dir", "/tmp/x", uuidID}, []string{"taskboard", "--dir", "/tmp/x", "tasks", "show", uuidID}},
		{[]string{"taskboard", "--pretty", "--", ulidID}, []string{"taskboard", "--pretty", "--", "tasks", "show", ulidID}},
		{[]string{"taskboard", "tasks", "show", ulidID}, []string{"taskboard", "tasks", "show", ulidID}},
		{[]string{"taskboard", "--dir", ulidID}, []string{"taskboard", "--dir", ulidID}},
		{[]string{"taskboard"}, []string{"taskboard"}},
	}
	for _, tc := range cases {
		if got := rewriteDirectTaskLookupArgs(tc.in); !slices.Equal(got, tc.want) {
			t.Fatalf("rewrite(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
