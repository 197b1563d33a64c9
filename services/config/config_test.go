// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"digipot-go/bus"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "bench" {
			return nil, false
		}
		return []byte(`{
			"mode": "dev",
			"debug": true,
			"region": {"code": "eu"}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "bench")
	svc.Start(ctx, conn)

	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	wantCount := 3 // mode, debug, region
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if m.Topic.Len() != 2 || m.Topic.At(0) != configPrefix {
				t.Fatalf("unexpected topic: %v", m.Topic)
			}
			if !m.Retained {
				t.Fatalf("config message for %q not retained", m.Topic.At(1))
			}
			got[m.Topic.At(1)] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}
	if got["mode"] != "dev" {
		t.Errorf("mode = %v", got["mode"])
	}
	if got["debug"] != true {
		t.Errorf("debug = %v", got["debug"])
	}
	if m, ok := got["region"].(map[string]any); !ok || m["code"] != "eu" {
		t.Errorf("region = %v", got["region"])
	}
}

func TestConfig_EmbeddedSimDecodes(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "sim")
	NewConfigService().Start(ctx, conn)

	sub := conn.Subscribe(bus.T(configPrefix, "hal"))
	select {
	case m := <-sub.Channel():
		halCfg, ok := m.Payload.(map[string]any)
		if !ok {
			t.Fatalf("config/hal payload type %T", m.Payload)
		}
		devs, ok := halCfg["devices"].([]any)
		if !ok || len(devs) == 0 {
			t.Fatalf("devices missing: %v", halCfg)
		}
		dev, ok := devs[0].(map[string]any)
		if !ok || dev["id"] != "pot0" || dev["type"] != "mcp4xxx" {
			t.Fatalf("device entry: %v", devs[0])
		}
		params, ok := dev["params"].(map[string]any)
		if !ok || params["bus"] != "spi0" || params["model"] != "mcp4231" {
			t.Fatalf("params: %v", dev["params"])
		}
	case <-time.After(600 * time.Millisecond):
		t.Fatal("timeout waiting for config/hal")
	}
}

func TestConfig_MissingDeviceID(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error without device ID in context")
	}
	if err := svc.publishConfig(
		context.WithValue(context.Background(), CtxDeviceKey, "nonexistent"), conn,
	); err == nil {
		t.Fatal("expected error for unknown device")
	}
}
