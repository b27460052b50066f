package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Two bidirectional ESCs on GP2/GP3 in PIO0.
const cfgPico = `{
  "hal": {
    "devices": [
      {"id": "m1", "type": "dshot_esc", "params": {"pin": 2, "speed": 600, "poles": 14}},
      {"id": "m2", "type": "dshot_esc", "params": {"pin": 3, "speed": 600, "poles": 14}}
    ]
  }
}`

// Four transmit-only ESCs on GP6..GP9 from one slot in PIO1.
const cfgPicoQuad = `{
  "hal": {
    "devices": [
      {"id": "quad", "type": "dshot_x4", "params": {"pin_base": 6, "lanes": 4, "speed": 300, "block": 1}}
    ]
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":      []byte(cfgPico),
	"pico-quad": []byte(cfgPicoQuad),
}
