package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("pio: out of program space")
	cases := map[string]struct {
		err  error
		want Code
	}{
		"nil":     {nil, OK},
		"code":    {NoFreeSlot, NoFreeSlot},
		"wrapped": {Wrap(NoProgramSpace, "load", cause), NoProgramSpace},
		"foreign": {cause, Error},
	}
	for name, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Fatalf("%s: Of = %q, want %q", name, got, tc.want)
		}
	}
}

func TestE_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("boom")
	e := &E{C: InvalidParams, Op: "bidir", Msg: "pin out of range", Err: cause}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should see the cause")
	}
	if got := e.Error(); got != "bidir: invalid_params: pin out of range" {
		t.Fatalf("Error() = %q", got)
	}
}
