package keycode

import "fmt"

// next marks a key whose code is one past the previous key in its table.
const next = -1

type expansion uint8

const (
	withModifiers expansion = 1 << iota
	withDualFunctions
)

type keyDef struct {
	name    string // Go-style identifier, also accepted by Parse
	display string // empty means same as name
	code    int
}

type tableDef struct {
	table  Table
	name   string
	expand expansion
	keys   []keyDef
}

// numbered builds count sequential keys numbered from first, the first one at code.
func numbered(nameFmt, displayFmt string, first, code, count int) []keyDef {
	keys := make([]keyDef, 0, count)
	for i := first; i < first+count; i++ {
		c := next
		if i == first {
			c = code
		}
		keys = append(keys, keyDef{
			name:    fmt.Sprintf(nameFmt, i),
			display: fmt.Sprintf(displayFmt, i),
			code:    c,
		})
	}
	return keys
}

// tableDefs is ordered by decode precedence.
var tableDefs = []tableDef{
	{Blank, "blank", 0, []keyDef{
		{"NoKey", "No Key", 0},
		{"Transparent", "", 65535},
	}},
	{Spacing, "spacing", withModifiers | withDualFunctions, []keyDef{
		{"Enter", "", 40},
		{"Escape", "", next},
		{"Backspace", "", next},
		{"Tab", "", next},
		{"Space", "", next},
		{"Insert", "", 73},
		{"Delete", "", 76},
	}},
	{Alpha, "alpha", withModifiers | withDualFunctions, []keyDef{
		{"A", "", 4}, {"B", "", next}, {"C", "", next}, {"D", "", next},
		{"E", "", next}, {"F", "", next}, {"G", "", next}, {"H", "", next},
		{"I", "", next}, {"J", "", next}, {"K", "", next}, {"L", "", next},
		{"M", "", next}, {"N", "", next}, {"O", "", next}, {"P", "", next},
		{"Q", "", next}, {"R", "", next}, {"S", "", next}, {"T", "", next},
		{"U", "", next}, {"V", "", next}, {"W", "", next}, {"X", "", next},
		{"Y", "", next}, {"Z", "", next},
	}},
	{Digits, "digits", withModifiers | withDualFunctions, []keyDef{
		{"One", "1", 30},
		{"Two", "2", next},
		{"Three", "3", next},
		{"Four", "4", next},
		{"Five", "5", next},
		{"Six", "6", next},
		{"Seven", "7", next},
		{"Eight", "8", next},
		{"Nine", "9", next},
		{"Zero", "0", next},
	}},
	{Numpad, "numpad", withModifiers | withDualFunctions, []keyDef{
		{"NumLock", "Num Lock", 83},
		{"Divide", "Numpad /", next},
		{"Times", "Numpad *", next},
		{"Minus", "Numpad -", next},
		{"Add", "Numpad +", next},
		{"Enter", "Numpad Enter", next},
		{"One", "Numpad 1", next},
		{"Two", "Numpad 2", next},
		{"Three", "Numpad 3", next},
		{"Four", "Numpad 4", next},
		{"Five", "Numpad 5", next},
		{"Six", "Numpad 6", next},
		{"Seven", "Numpad 7", next},
		{"Eight", "Numpad 8", next},
		{"Nine", "Numpad 9", next},
		{"Zero", "Numpad 0", next},
		{"Period", "Numpad .", next},
	}},
	{Fx, "fx", withModifiers | withDualFunctions, append(
		numbered("F%d", "F%d", 1, 58, 12),
		numbered("F%d", "F%d", 13, 104, 12)...,
	)},
	{Symbols, "symbols", withModifiers | withDualFunctions, []keyDef{
		{"Dash", "-", 45},
		{"Equals", "=", next},
		{"BracketLeft", "[", next},
		{"BracketRight", "]", next},
		{"Backslash", `\`, next},
		{"Semicolon", ";", 51},
		{"SingleQuote", "'", next},
		{"BackTick", "`", next},
		{"Comma", ",", next},
		{"Period", ".", next},
		{"Slash", "/", next},
		{"CapsLock", "Caps Lock", next},
		{"IsoGTLT", "ISO <>", 100},
	}},
	{ShiftSymbols, "shift_symbols", 0, []keyDef{
		{"Underscore", "_", 2093},
		{"Plus", "+", next},
		{"BraceLeft", "{", next},
		{"BraceRight", "}", next},
		{"Pipe", "|", next},
		{"Colon", ":", 2099},
		{"DoubleQuote", `"`, next},
		{"Tilde", "~", next},
		{"LT", "<", next},
		{"GT", ">", next},
		{"QuestionMark", "?", next},
		{"AltPipe", "Non-US |", 2148},
	}},
	{Modifiers, "modifiers", withModifiers, []keyDef{
		{"LeftCtrl", "Left Ctrl", 224},
		{"LeftShift", "Left Shift", next},
		{"LeftAlt", "Left Alt", next},
		{"LeftOs", "Left OS", next},
		{"RightCtrl", "Right Ctrl", next},
		{"RightShift", "Right Shift", next},
		{"AltGr", "", next},
		{"RightOs", "Right OS", next},
	}},
	{Media, "media", 0, []keyDef{
		{"Mute", "", 19682},
		{"NextTrack", "Next Track", 22709},
		{"PreviousTrack", "Previous Track", next},
		{"Stop", "", next},
		{"PlayPause", "Play/Pause", 22733},
		{"VolumeUp", "Volume Up", 23785},
		{"VolumeDown", "Volume Down", next},
		{"Eject", "", 22712},
		{"Camera", "", 18552},
		{"BrightnessUp", "Brightness Up", 23663},
		{"BrightnessDown", "Brightness Down", next},
		{"Calculator", "", 18834},
		{"Shuffle", "", 22713},
	}},
	{Navigation, "navigation", withModifiers | withDualFunctions, []keyDef{
		{"Home", "", 74},
		{"PageUp", "Page Up", next},
		{"End", "", 77},
		{"PageDown", "Page Down", next},
		{"ArrowRight", "Right Arrow", next},
		{"ArrowLeft", "Left Arrow", next},
		{"ArrowDown", "Down Arrow", next},
		{"ArrowUp", "Up Arrow", next},
		{"Menu", "", 101},
	}},
	{MouseMovement, "mouse_movement", 0, []keyDef{
		{"MouseUp", "Mouse Up", 20481},
		{"MouseDown", "Mouse Down", next},
		{"MouseLeft", "Mouse Left", 20484},
		{"MouseRight", "Mouse Right", 20488},
	}},
	{MouseWheel, "mouse_wheel", 0, []keyDef{
		{"WheelUp", "Mouse Wheel Up", 20497},
		{"WheelDown", "Mouse Wheel Down", next},
		{"WheelLeft", "Mouse Wheel Left", 20500},
		{"WheelRight", "Mouse Wheel Right", 20504},
	}},
	{MouseButtons, "mouse_buttons", 0, []keyDef{
		{"Left", "Mouse Button Left", 20545},
		{"Right", "Mouse Button Right", next},
		{"Middle", "Mouse Button Middle", 20548},
		{"Back", "Mouse Button Back", 20552},
		{"Forward", "Mouse Button Forward", 20560},
	}},
	{MouseWarp, "mouse_warp", 0, []keyDef{
		{"End", "Mouse Warp End", 20576},
		{"NW", "Mouse Warp NW", 20517},
		{"SW", "Mouse Warp SW", next},
		{"NE", "Mouse Warp NE", 20521},
		{"SE", "Mouse Warp SE", next},
	}},
	{LEDEffects, "led_effects", 0, []keyDef{
		{"Next", "Next LED Effect", 17152},
		{"Previous", "Previous LED Effect", next},
		{"Toggle", "Toggle LED Effect", next},
	}},
	{Battery, "battery", 0, []keyDef{
		{"Status", "Battery Status", 54108},
	}},
	{Bluetooth, "bluetooth", 0, []keyDef{
		{"Pair", "Bluetooth Pairing", 54109},
	}},
	{Energy, "energy", 0, []keyDef{
		{"Status", "Energy Status", 54111},
	}},
	{RF, "rf", 0, []keyDef{
		{"Status", "Wireless RF Status", 54112},
	}},
	{LayerLock, "layer_lock", 0, numbered("Layer%d", "Layer %d Lock", 1, 17408, 10)},
	{LayerShift, "layer_shift", 0, numbered("Layer%d", "Layer %d Shift", 1, 17450, 10)},
	{LayerMove, "layer_move", 0, numbered("Layer%d", "Layer %d Move", 1, 17492, 10)},
	{Miscellaneous, "miscellaneous", withModifiers | withDualFunctions, []keyDef{
		{"PrintScreen", "Print Screen", 70},
		{"ScrollLock", "Scroll Lock", next},
		{"Pause", "", next},
		{"Shutdown", "", 20865},
		{"Sleep", "", 20866},
	}},
	{Oneshot, "oneshot", 0, append(
		numbered("Layer%d", "Oneshot Layer %d", 1, 49161, 8),
		keyDef{"LeftCtrl", "Oneshot Left Ctrl", 49153},
		keyDef{"LeftShift", "Oneshot Left Shift", next},
		keyDef{"LeftAlt", "Oneshot Left Alt", next},
		keyDef{"LeftOs", "Oneshot Left OS", next},
		keyDef{"RightCtrl", "Oneshot Right Ctrl", next},
		keyDef{"RightShift", "Oneshot Right Shift", next},
		keyDef{"AltGr", "Oneshot AltGr", next},
		keyDef{"RightOs", "Oneshot Right OS", next},
	)},
	{Macros, "macros", 0, numbered("Macro%d", "Macro %d", 1, 53852, 128)},
	{Superkeys, "super_keys", 0, numbered("Super%d", "Super Key %d", 1, 53980, 128)},
}
