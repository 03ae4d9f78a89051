// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"

	"github.com/mileusna/useragent"
)

// Device classes stored with product views and reported by analytics.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

const unknownAgent = "Unknown"

// ParsedUA is what a product view keeps of the visitor's user agent.
type ParsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

func (p ParsedUA) IsBot() bool { return p.DeviceType == DeviceBot }

// ParseUserAgent classifies uaString. Anything not recognised as a bot,
// phone or tablet counts as desktop.
func ParseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)
	device := DeviceDesktop
	if ua.Bot {
		device = DeviceBot
	} else if ua.Mobile {
		device = DeviceMobile
	} else if ua.Tablet {
		device = DeviceTablet
	}
	return ParsedUA{
		Browser:    cmp.Or(ua.Name, unknownAgent),
		OS:         cmp.Or(ua.OS, unknownAgent),
		DeviceType: device,
	}
}
