package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgSim = `{
  "hal": {
    "devices": [
      {
        "id": "pot0",
        "type": "mcp4xxx",
        "params": {
          "bus": "spi0",
          "cs_pin": 17,
          "model": "mcp4231",
          "total_ohms": 10000
        }
      }
    ]
  }
}`

var embeddedConfigs = map[string][]byte{
	"sim": []byte(cfgSim),
}
