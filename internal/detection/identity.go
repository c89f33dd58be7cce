// identity.go: natural keys, canonical identifiers and the identity
// validity predicate.
package detection

import (
	"fmt"
	"strings"
)

// CellIDSentinel is the value cellular radios report when the cell id is
// unknown. Detections carrying it must never reach the canonical table.
const CellIDSentinel = 2147483647

// Identifier prefixes for the canonical device table.
const (
	identifierPrefixMAC  = "MAC:"
	identifierPrefixCell = "CELL:"
)

// NormalizeAddress returns the canonical uppercase form of a link-layer
// address. Surrounding whitespace is stripped; the separator style is
// preserved as reported by the sensor.
func NormalizeAddress(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}

// usesTrackingArea reports whether the network generation keys its area by
// tracking area code rather than location area code.
func (c *CellMetadata) usesTrackingArea() bool {
	switch c.NetworkType {
	case "LTE", "5G", "NR":
		return true
	}
	return false
}

// AreaCode returns the area component of the cell identity: TAC for LTE/NR
// generations, LAC otherwise.
func (c *CellMetadata) AreaCode() int {
	if c.usesTrackingArea() {
		return c.TAC
	}
	return c.LAC
}

// NaturalKey returns the minimal identity of the emitter within its sensor
// type: the normalized link-layer address, or the composite cellular tuple.
func (d *RawDetection) NaturalKey() string {
	switch d.Kind {
	case KindWiFi, KindBluetooth:
		if d.Link == nil {
			return ""
		}
		return NormalizeAddress(d.Link.Address)
	case KindCell:
		if d.Cell == nil {
			return ""
		}
		return fmt.Sprintf("%d-%d-%d-%d", d.Cell.MCC, d.Cell.MNC, d.Cell.AreaCode(), d.Cell.CellID)
	}
	return ""
}

// UniqueIdentifier returns the cross-type canonical identity used by the
// resolver, e.g. "MAC:AA:BB:CC:DD:EE:FF" or "CELL:262-2-4711-101".
func (d *RawDetection) UniqueIdentifier() string {
	key := d.NaturalKey()
	if key == "" {
		return ""
	}
	switch d.Kind {
	case KindWiFi, KindBluetooth:
		return identifierPrefixMAC + key
	case KindCell:
		return identifierPrefixCell + key
	}
	return ""
}

// HasValidIdentity reports whether the detection's natural key is
// structurally valid for its type. Invalid identities are still retained
// as raw rows for audit but are excluded from canonicalization.
func (d *RawDetection) HasValidIdentity() bool {
	switch d.Kind {
	case KindWiFi, KindBluetooth:
		return d.Link != nil && NormalizeAddress(d.Link.Address) != ""
	case KindCell:
		return d.Cell != nil && d.Cell.valid()
	}
	return false
}

// valid is the cellular identity predicate: plausible positive cell id,
// a 3-digit country code, a 0..999 network code and a plausible area code
// for the network generation.
func (c *CellMetadata) valid() bool {
	if c.CellID <= 0 || c.CellID == CellIDSentinel {
		return false
	}
	if c.MCC < 100 || c.MCC > 999 {
		return false
	}
	if c.MNC < 0 || c.MNC > 999 {
		return false
	}
	area := c.AreaCode()
	if area <= 0 || area == CellIDSentinel {
		return false
	}
	return true
}
