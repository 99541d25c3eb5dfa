package main

import (
	"strings"

	"github.com/symsrv/symproxy/config"
)

// pathReplacement rewrites every occurrence of from with to.
type pathReplacement struct {
	from string
	to   string
}

// buildPathReplacements strips known absolute build-output directories that
// some producers embed in symbol file paths, collapsing them to the path
// root. Applied after lowercasing, so the patterns are lowercase.
var buildPathReplacements = []pathReplacement{
	{"/c:/projects/src/out/default/", "/"},
	{"/home/builduser/project/out/default/", "/"},
}

// pathNormalizer maps loosely formatted client paths to the canonical
// upstream form. The canonical path both addresses the upstream store and
// derives the cache key, so lookups and fetches always agree.
type pathNormalizer struct {
	// aliases holds the expanded alias rules, applied in order.
	aliases    []pathReplacement
	pathPrefix string
}

func newPathNormalizer(aliases []config.Alias, pathPrefix string) *pathNormalizer {
	n := &pathNormalizer{
		pathPrefix: pathPrefix,
	}
	for _, a := range aliases {
		// An aliased application name counts only as a whole path segment
		// or when followed by an encoded space or an extension dot.
		n.aliases = append(n.aliases,
			pathReplacement{"/" + a.From + "/", "/" + a.To + "/"},
			pathReplacement{"/" + a.From + "%20", "/" + a.To + "%20"},
			pathReplacement{"/" + a.From + ".", "/" + a.To + "."},
		)
	}
	return n
}

// Normalize maps a raw request path to the canonical upstream path.
//
// Rule order matters: later rules operate on already-lowercased text.
// Normalization is total - malformed input passes through the
// substitutions unchanged.
func (n *pathNormalizer) Normalize(rawPath string) string {
	// The upstream store is populated with lowercase keys; producers
	// disagree on case.
	p := strings.ToLower(rawPath)

	// Some producers encode spaces as `+` or `%2b`; the store expects %20.
	p = strings.ReplaceAll(p, "+", "%20")
	p = strings.ReplaceAll(p, "%2b", "%20")

	for _, r := range n.aliases {
		p = strings.ReplaceAll(p, r.from, r.to)
	}
	for _, r := range buildPathReplacements {
		p = strings.ReplaceAll(p, r.from, r.to)
	}

	return n.pathPrefix + p
}
