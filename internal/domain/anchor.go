package domain

import "strings"

// AnchorKey names where a station label sits relative to its marker
type AnchorKey string

const (
	AnchorTop         AnchorKey = "T"
	AnchorTopRight    AnchorKey = "TR"
	AnchorRight       AnchorKey = "R"
	AnchorBottomRight AnchorKey = "BR"
	AnchorBottom      AnchorKey = "B"
	AnchorBottomLeft  AnchorKey = "BL"
	AnchorLeft        AnchorKey = "L"
	AnchorTopLeft     AnchorKey = "TL"
	AnchorCenter      AnchorKey = "C"
)

// DefaultAnchor is used for stations that have never had a label placed
const DefaultAnchor = AnchorBottom

// AnchorStyle is the text-alignment configuration for one anchor key
type AnchorStyle struct {
	VAlign  string  `json:"valign"`
	HAlign  string  `json:"halign"`
	MarginX float64 `json:"margin_x"`
	MarginY float64 `json:"margin_y"`
}

var anchorStyles = map[AnchorKey]AnchorStyle{
	AnchorTop:         {VAlign: "top", HAlign: "center", MarginX: 0, MarginY: -12},
	AnchorTopRight:    {VAlign: "top", HAlign: "right", MarginX: 8, MarginY: -8},
	AnchorRight:       {VAlign: "center", HAlign: "right", MarginX: 12, MarginY: 0},
	AnchorBottomRight: {VAlign: "bottom", HAlign: "right", MarginX: 8, MarginY: 8},
	AnchorBottom:      {VAlign: "bottom", HAlign: "center", MarginX: 0, MarginY: 12},
	AnchorBottomLeft:  {VAlign: "bottom", HAlign: "left", MarginX: -8, MarginY: 8},
	AnchorLeft:        {VAlign: "center", HAlign: "left", MarginX: -12, MarginY: 0},
	AnchorTopLeft:     {VAlign: "top", HAlign: "left", MarginX: -8, MarginY: -8},
	AnchorCenter:      {VAlign: "center", HAlign: "center", MarginX: 0, MarginY: 0},
}

// anchorOrder lists the keys clockwise from the top, centre last
var anchorOrder = []AnchorKey{
	AnchorTop, AnchorTopRight, AnchorRight, AnchorBottomRight,
	AnchorBottom, AnchorBottomLeft, AnchorLeft, AnchorTopLeft, AnchorCenter,
}

// keypressAnchors maps label-reposition keys to anchors (WASD plus diagonals, X for centre)
var keypressAnchors = map[string]AnchorKey{
	"W": AnchorTop,
	"A": AnchorLeft,
	"S": AnchorBottom,
	"D": AnchorRight,
	"Q": AnchorTopLeft,
	"E": AnchorTopRight,
	"Z": AnchorBottomLeft,
	"C": AnchorBottomRight,
	"X": AnchorCenter,
}

// AnchorKeys returns all nine anchor keys in table order
func AnchorKeys() []AnchorKey {
	keys := make([]AnchorKey, len(anchorOrder))
	copy(keys, anchorOrder)
	return keys
}

// Valid reports whether k is one of the nine anchor keys
func (k AnchorKey) Valid() bool {
	_, ok := anchorStyles[k]
	return ok
}

// OrDefault returns k if it is valid, DefaultAnchor otherwise
func (k AnchorKey) OrDefault() AnchorKey {
	if k.Valid() {
		return k
	}
	return DefaultAnchor
}

// Style returns the alignment for k, falling back to the default anchor's style
func (k AnchorKey) Style() AnchorStyle {
	return anchorStyles[k.OrDefault()]
}

// AnchorForKeypress maps a direction key to an anchor. Case is ignored.
func AnchorForKeypress(code string) (AnchorKey, bool) {
	key, ok := keypressAnchors[strings.ToUpper(strings.TrimSpace(code))]
	return key, ok
}
