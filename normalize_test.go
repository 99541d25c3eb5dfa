package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/symsrv/symproxy/config"
)

var testAliases = []config.Alias{
	{From: "slack", To: "electron"},
	{From: "teams", To: "electron"},
}

func TestNormalize(t *testing.T) {
	n := newPathNormalizer(testAliases, "")

	testCases := []struct {
		name     string
		rawPath  string
		expected string
	}{
		{
			name:     "lowercases everything",
			rawPath:  "/Electron/ABC.pdb/0123ABCD/abc.sym",
			expected: "/electron/abc.pdb/0123abcd/abc.sym",
		},
		{
			name:     "plus becomes encoded space",
			rawPath:  "/electron/launcher+helper.pdb/1/launcher+helper.sym",
			expected: "/electron/launcher%20helper.pdb/1/launcher%20helper.sym",
		},
		{
			name:     "encoded plus becomes encoded space",
			rawPath:  "/electron/launcher%2Bhelper.pdb/1/x.sym",
			expected: "/electron/launcher%20helper.pdb/1/x.sym",
		},
		{
			name:     "alias as whole segment",
			rawPath:  "/Slack/app.pdb/1/app.sym",
			expected: "/electron/app.pdb/1/app.sym",
		},
		{
			name:     "alias followed by encoded space",
			rawPath:  "/slack+helper/app.pdb/1/app.sym",
			expected: "/electron%20helper/app.pdb/1/app.sym",
		},
		{
			name:     "alias followed by dot",
			rawPath:  "/slack.exe.pdb/1/slack.exe.pdb",
			expected: "/electron.exe.pdb/1/electron.exe.pdb",
		},
		{
			name:     "all alias occurrences replaced",
			rawPath:  "/slack/nested/teams/app.pdb",
			expected: "/electron/nested/electron/app.pdb",
		},
		{
			name:     "alias inside a longer word is kept",
			rawPath:  "/slacker/app.pdb/1/app.sym",
			expected: "/slacker/app.pdb/1/app.sym",
		},
		{
			name:     "windows build output path collapsed",
			rawPath:  "/C:/projects/src/out/Default/electron.exe.pdb/1/electron.exe.pdb",
			expected: "/electron.exe.pdb/1/electron.exe.pdb",
		},
		{
			name:     "linux build output path collapsed",
			rawPath:  "/home/builduser/project/out/default/libnode.so/1/libnode.so.sym",
			expected: "/libnode.so/1/libnode.so.sym",
		},
		{
			name:     "malformed input passes through",
			rawPath:  "///%%zz..//",
			expected: "///%%zz..//",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, n.Normalize(tc.rawPath))
		})
	}
}

func TestNormalizePathPrefix(t *testing.T) {
	n := newPathNormalizer(testAliases, "/prefix")
	assert.Equal(t,
		"/prefix/electron/abc.pdb/0123abcd/abc.sym",
		n.Normalize("/Electron/abc.pdb/0123ABCD/abc.sym"))
}

func TestNormalizeTwiceMatchesOnce(t *testing.T) {
	// Lowercasing and alias rules are individually idempotent, so inputs
	// free of `+`/`%2b` artifacts normalize to a fixed point (without a
	// prefix, which is injected unconditionally).
	n := newPathNormalizer(testAliases, "")

	paths := []string{
		"/Electron/abc.pdb/0123ABCD/abc.sym",
		"/slack/app.pdb/1/app.sym",
		"/slack.exe.pdb/1/slack.exe.pdb",
		"/electron/launcher%20helper.pdb/1/x.sym",
		"/home/builduser/project/out/default/libnode.so/1/x.sym",
	}
	for _, p := range paths {
		once := n.Normalize(p)
		assert.Equal(t, once, n.Normalize(once), "path %q", p)
	}
}
