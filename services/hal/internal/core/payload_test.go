package core

import (
	"testing"

	"dshot-go/errcode"
	"dshot-go/types"
)

func TestAs(t *testing.T) {
	v, code := As[types.ThrottleSet](types.ThrottleSet{Value: 300})
	if code != "" || v.Value != 300 {
		t.Fatalf("typed: %+v %q", v, code)
	}

	v, code = As[types.ThrottleSet](map[string]any{"value": 1200})
	if code != "" || v.Value != 1200 {
		t.Fatalf("map: %+v %q", v, code)
	}

	v, code = As[types.ThrottleSet]([]byte(`{"value": 48}`))
	if code != "" || v.Value != 48 {
		t.Fatalf("bytes: %+v %q", v, code)
	}

	v, code = As[types.ThrottleSet](nil)
	if code != "" || v.Value != 0 {
		t.Fatalf("nil: %+v %q", v, code)
	}

	if _, code = As[types.ThrottleSet](42); code != errcode.InvalidPayload {
		t.Fatalf("int payload code = %q", code)
	}
	if _, code = As[types.ThrottleSet](&types.ThrottleSet{}); code != errcode.InvalidPayload {
		t.Fatalf("pointer payload code = %q", code)
	}
	if _, code = As[types.ThrottleSet](map[string]any{"value": "fast"}); code != errcode.InvalidPayload {
		t.Fatalf("bad map code = %q", code)
	}
}

func TestDecode_HALConfig(t *testing.T) {
	raw := map[string]any{
		"devices": []any{
			map[string]any{"id": "m1", "type": "dshot_esc", "params": map[string]any{"pin": 2}},
		},
	}
	var cfg types.HALConfig
	if err := Decode(raw, &cfg); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].ID != "m1" || cfg.Devices[0].Type != "dshot_esc" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if p, ok := cfg.Devices[0].Params.(map[string]any); !ok || p["pin"] != float64(2) {
		t.Fatalf("params = %#v", cfg.Devices[0].Params)
	}
}
