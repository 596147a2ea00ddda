// Package sourceurl rewrites cloud-storage share links into direct-download URLs.
package sourceurl

import (
	"net/url"
	"regexp"
	"strings"
)

// Rule is one host-matched rewrite. Rewrite returns the input unchanged when
// the URL does not carry what the rule needs.
type Rule struct {
	Name    string
	Match   func(host string) bool
	Rewrite func(raw string, u *url.URL) string
}

var driveFileID = regexp.MustCompile(`/d/([^/]+)(?:/|$)`)

var rules = []Rule{
	{
		Name:    "google-drive",
		Match:   hostContains("drive.google.com"),
		Rewrite: rewriteDrive,
	},
	{
		Name:    "dropbox",
		Match:   hostContains("dropbox.com"),
		Rewrite: rewriteDropbox,
	},
	{
		Name:    "onedrive",
		Match:   hostContains("1drv.ms", "onedrive.live.com"),
		Rewrite: rewriteOneDrive,
	},
}

// Rules returns the ordered rewrite rules. First match wins.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Normalize rewrites known share links for direct binary retrieval. Empty
// input yields "", unparsable input and unknown hosts are returned verbatim.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range rules {
		if r.Match(host) {
			return r.Rewrite(raw, u)
		}
	}
	return raw
}

func hostContains(needles ...string) func(string) bool {
	return func(host string) bool {
		for _, n := range needles {
			if strings.Contains(host, n) {
				return true
			}
		}
		return false
	}
}

func rewriteDrive(raw string, u *url.URL) string {
	m := driveFileID.FindStringSubmatch(u.Path)
	if m == nil || m[1] == "" {
		return raw
	}
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(m[1])
}

func rewriteDropbox(_ string, u *url.URL) string {
	u.RawQuery = setQueryParam(u.RawQuery, "dl", "1")
	return u.String()
}

func rewriteOneDrive(raw string, u *url.URL) string {
	if u.Query().Has("download") {
		return raw
	}
	u.RawQuery = setQueryParam(u.RawQuery, "download", "1")
	return u.String()
}

// setQueryParam replaces every key=... pair in place, or appends key=value
// when absent. Other pairs keep their order and original escaping.
func setQueryParam(rawQuery, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if rawQuery == "" {
		return pair
	}
	parts := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(parts)+1)
	found := false
	for _, p := range parts {
		name, _, _ := strings.Cut(p, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil && unescaped == key {
			if !found {
				out = append(out, pair)
				found = true
			}
			continue
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
