// Package state caches platform entity states for template lookups.
//
// Home Assistant mirrors entity state over MQTT via its statestream
// integration. The store subscribes once, keeps the latest value per
// entity in memory, and serves every states()/is_state() template call
// without touching the network.
//
//	homeassistant/statestream/light/bedroom/state  "on"
//	                      │
//	                      ▼
//	               ┌─────────────┐   Get / IsState   ┌───────────┐
//	               │ state.Store │◄──────────────────│ templates │
//	               └─────────────┘                   └───────────┘
//
// Retained messages warm the cache on startup, so rules that consult
// state are usable moments after connect.
package state
