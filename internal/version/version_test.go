package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.2.3"
	if got := String(); !strings.HasPrefix(got, "beatremap version 1.2.3 (") {
		t.Errorf("String() = %q", got)
	}
}
