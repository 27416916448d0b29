package types

// ---- Board state (retained at board/state) ----

type BoardState struct {
	Level  string `json:"level"`            // "ready", "degraded"
	Status string `json:"status,omitempty"` // short code, e.g. "display_unavailable"
	Board  string `json:"board"`
	TS     int64  `json:"ts_ms"`
}

// ---- Capability kinds ----

type Kind string

const (
	KindLED     Kind = "led"
	KindButton  Kind = "button"
	KindDisplay Kind = "display"
	KindAudio   Kind = "audio"
	KindSerial  Kind = "serial"
)

// ---- Buttons ----

type ButtonInfo struct {
	Pin       int   `json:"pin"`
	ActiveLow bool  `json:"active_low"`
	Debounce  int64 `json:"debounce_ms"`
	LongPress int64 `json:"long_press_ms"`
}

// ButtonEvent is mirrored to board/button/<name>/event/<kind>.
type ButtonEvent struct {
	Button string `json:"button"`
	Kind   string `json:"kind"` // "press_down","press_up","click","long_press"
	TS     int64  `json:"ts_ms"`
}

// ---- Display / audio control ----

type Notify struct {
	Text string `json:"text"`
}

type SetVolume struct {
	Volume int `json:"volume"`
}

type VolumeValue struct {
	Volume int `json:"volume"`
}

// ---- Application ----

// DeviceState is the application's coarse state, published retained at app/state.
type DeviceState string

const (
	StateUnknown    DeviceState = "unknown"
	StateStarting   DeviceState = "starting"
	StateIdle       DeviceState = "idle"
	StateConnecting DeviceState = "connecting"
	StateListening  DeviceState = "listening"
	StateSpeaking   DeviceState = "speaking"
	StateUpgrading  DeviceState = "upgrading"
)

// ---- Things ----

type ThingProperty struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"` // "boolean","number","string"
}

type ThingMethod struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Params      []ThingProperty `json:"parameters,omitempty"`
}

// ThingDescriptor is the externally visible description of an AI-controllable device.
type ThingDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Properties  []ThingProperty `json:"properties,omitempty"`
	Methods     []ThingMethod   `json:"methods,omitempty"`
}

// ---- Replies ----

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
