package core

import "dshot-go/bus"

func T(tokens ...any) bus.Topic { return bus.T(tokens...) }

func topicConfigHAL() bus.Topic { return T("config", "hal") }
func topicHALState() bus.Topic  { return T("hal", "state") }

// hal/cap/<domain>/<kind>/<name>/...
func capBase(a CapAddr) bus.Topic { return T("hal", "cap", a.Domain, a.Kind, a.Name) }

func capInfo(a CapAddr) bus.Topic   { return capBase(a).Append("info") }
func capStatus(a CapAddr) bus.Topic { return capBase(a).Append("status") }
func capValue(a CapAddr) bus.Topic  { return capBase(a).Append("value") }
func capEvent(a CapAddr) bus.Topic  { return capBase(a).Append("event") }

// CapCtrl is hal/cap/<domain>/<kind>/<name>/control/<verb>.
func CapCtrl(a CapAddr, verb string) bus.Topic { return capBase(a).Append("control", verb) }

// hal/cap/+/+/+/control/+
func ctrlWildcard() bus.Topic {
	return T("hal", "cap", bus.Single, bus.Single, bus.Single, "control", bus.Single)
}
