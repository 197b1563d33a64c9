package core

import "digipot-go/types"

// decodeHALConfig accepts either a typed HALConfig (in-process publishers)
// or the JSON-ish map shape the config service produces.
func decodeHALConfig(v any) (types.HALConfig, bool) {
	if cfg, ok := v.(types.HALConfig); ok {
		return cfg, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return types.HALConfig{}, false
	}
	rawDevs, ok := m["devices"].([]any)
	if !ok {
		return types.HALConfig{}, false
	}
	var cfg types.HALConfig
	for _, rd := range rawDevs {
		dm, ok := rd.(map[string]any)
		if !ok {
			continue
		}
		id, _ := dm["id"].(string)
		typ, _ := dm["type"].(string)
		if id == "" || typ == "" {
			continue
		}
		cfg.Devices = append(cfg.Devices, types.HALDevice{
			ID:     id,
			Type:   typ,
			Params: dm["params"],
		})
	}
	return cfg, len(cfg.Devices) > 0
}
