package core

import "digipot-go/bus"

// Topic helpers. Layout: hal/cap/<domain>/<kind>/<name>/...

func topicConfigHAL() bus.Topic { return bus.T("config", "hal") }
func topicHALState() bus.Topic  { return bus.T("hal", "state") }

func capBase(a CapAddr) bus.Topic { return bus.T("hal", "cap", a.Domain, a.Kind, a.Name) }

func capInfo(a CapAddr) bus.Topic   { return capBase(a).Append("info") }
func capStatus(a CapAddr) bus.Topic { return capBase(a).Append("status") }
func capValue(a CapAddr) bus.Topic  { return capBase(a).Append("value") }
func capEvent(a CapAddr) bus.Topic  { return capBase(a).Append("event") }

// hal/cap/<domain>/<kind>/<name>/control/<verb>
func ctrlWildcard() bus.Topic {
	return bus.T("hal", "cap", bus.WildOne, bus.WildOne, bus.WildOne, "control", bus.WildOne)
}
