package selector

import (
	"errors"
	"testing"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/word"
)

func TestHashInRange(t *testing.T) {
	inputs := [][]word.Word{
		nil,
		word.Words(0),
		word.Words(1, 2, 3),
		{word.Word{0xff, 0xff, 0xff, 0xff}},
	}
	for _, in := range inputs {
		h := Hash(in...)
		if !h.InRange() {
			t.Errorf("Hash(%v) = %s exceeds %d bits", in, h, word.Bits)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	a := Hash(word.Words(1, 2)...)
	b := Hash(word.Words(1, 2)...)
	if a != b {
		t.Error("hash not deterministic")
	}
	if a == Hash(word.Words(2, 1)...) {
		t.Error("hash ignores order")
	}
}

func TestResourceSelector(t *testing.T) {
	got := Resource("game", "Position")
	want := Hash(NameHash("game"), NameHash("Position"))
	if got != want {
		t.Errorf("Resource() = %s, want %s", got, want)
	}
	if got == Resource("other", "Position") {
		t.Error("namespaces must separate selectors")
	}
	if Namespace("game") != NameHash("game") {
		t.Error("namespace selector should be H(namespace)")
	}
	if Combine(Namespace("game"), NameHash("Position")) != got {
		t.Error("Combine should match Resource")
	}
}

func TestTags(t *testing.T) {
	if Tag("game", "Position") != "game-Position" {
		t.Errorf("Tag() = %s", Tag("game", "Position"))
	}
	ns, name, err := SplitTag("game-Position")
	if err != nil || ns != "game" || name != "Position" {
		t.Errorf("SplitTag = %q, %q, %v", ns, name, err)
	}

	bad := []string{"game", "-Position", "game-", "ga me-Position", "game-Pos-ition"}
	for _, tag := range bad {
		t.Run(tag, func(t *testing.T) {
			_, _, err := SplitTag(tag)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, wserr.Sentinel(wserr.KindInvalidInput)) {
				t.Errorf("error = %v, want invalid_input", err)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	tests := map[string]bool{
		"Position": true,
		"ns_1":     true,
		"":         false,
		"a-b":      false,
		"a.b":      false,
		"naïve":    false,
	}
	for in, want := range tests {
		if got := ValidName(in); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", in, got, want)
		}
	}
}
