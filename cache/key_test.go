package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	testCases := []struct {
		key      *Key
		expected string
	}{
		{
			key:      NewKey("/prefix/electron/abc.pdb/0123abcd/abc.sym"),
			expected: "3d85a068506f6e3a765e78d36101ed70",
		},
		{
			key:      NewKey("/electron/electron.exe.pdb/abcdef12345/electron.exe.pdb"),
			expected: "4ef921b010b1e1ab4ca69fb313adde92",
		},
		{
			key:      NewKey("/"),
			expected: "87221fa73360cb1dc7e9d78cb1bb03dc",
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.key.String(), "unexpected key for path %q", tc.key.Path)
	}
}

func TestKeyStringDeterministic(t *testing.T) {
	k1 := NewKey("/electron/app.pdb/1234/app.sym")
	k2 := NewKey("/electron/app.pdb/1234/app.sym")
	assert.Equal(t, k1.String(), k2.String())
}

func TestKeyStringPairwiseDistinct(t *testing.T) {
	seen := make(map[string]string)
	for app := 0; app < 20; app++ {
		for build := 0; build < 50; build++ {
			path := fmt.Sprintf("/app%d/app%d.pdb/%08x/app%d.sym", app, app, build*7919, app)
			ks := NewKey(path).String()
			if prev, ok := seen[ks]; ok {
				t.Fatalf("key collision: %q and %q both map to %s", prev, path, ks)
			}
			assert.Len(t, ks, 32)
			seen[ks] = path
		}
	}
}
