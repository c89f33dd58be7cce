// Package oui resolves link-layer address prefixes to vendor names.
package oui

import (
	"fmt"
	"strings"
)

// vendors maps the first three octets of a link-layer address to a vendor
// name. The table covers the vendors the survey most commonly encounters;
// everything else reports as unknown with the prefix attached.
var vendors = map[string]string{
	"00:1A:2B": "Cisco",
	"00:1B:63": "Netgear",
	"00:1D:7E": "Samsung",
	"00:23:69": "Apple",
	"00:26:5A": "LG",
	"00:50:7F": "Intel",
	"00:1F:3B": "Sony",
	"00:1E:8C": "TP-Link",
	"00:18:4D": "Ralink",
	"00:13:46": "D-Link",
	"00:0C:43": "Huawei",
	"00:12:17": "Lenovo",
	"00:16:6F": "ZTE",
}

const prefixLen = 8 // "AA:BB:CC"

// Lookup returns the vendor name for a colon-separated link-layer address.
func Lookup(address string) string {
	if len(address) < prefixLen {
		return "Unknown"
	}
	prefix := strings.ToUpper(address[:prefixLen])
	if vendor, ok := vendors[prefix]; ok {
		return vendor
	}
	return fmt.Sprintf("Unknown (%s)", prefix)
}
