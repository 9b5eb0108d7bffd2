package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryParams_FiltersAndSorts(t *testing.T) {
	empty := ""
	name := "Acme"
	r := Request{Query: map[string]any{
		"name":        &name,
		"description": &empty,
		"number":      nil,
		"from":        0,
		"count":       json.Number("25"),
		"isClosed":    true,
		"hours":       float32(1.25),
		"rate":        1e20,
		"fields":      "",
	}}

	assert.Equal(t, []QueryParam{
		{Key: "count", Value: "25"},
		{Key: "from", Value: "0"},
		{Key: "hours", Value: "1.25"},
		{Key: "isClosed", Value: "true"},
		{Key: "name", Value: "Acme"},
		{Key: "rate", Value: "100000000000000000000"},
	}, r.QueryParams())
}

func TestQueryParams_Empty(t *testing.T) {
	assert.Nil(t, Request{}.QueryParams())
}

func TestFormatQueryValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", false},
		{"", "", false},
		{"x", "x", true},
		{false, "false", true},
		{float64(3), "3", true},
		{-2.5, "-2.5", true},
		{int64(-9), "-9", true},
		{uint(4), "4", true},
	}
	for _, tc := range cases {
		got, ok := FormatQueryValue(tc.in)
		assert.Equal(t, tc.ok, ok, "%#v", tc.in)
		assert.Equal(t, tc.want, got, "%#v", tc.in)
	}
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://tripletex.no/v2/project", JoinURL("https://tripletex.no/v2", "/project"))
	assert.Equal(t, "https://tripletex.no/v2/project", JoinURL("https://tripletex.no/v2/", "project"))
	assert.Equal(t, "https://tripletex.no/v2/timesheet/entry/>totalHours", JoinURL("https://tripletex.no/v2", "/timesheet/entry/>totalHours"))
}
