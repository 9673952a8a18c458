package core

import "strings"

// Setting is the care setting of a facility.
type Setting string

// Care settings.
const (
	SettingSNF Setting = "SNF"
	SettingALF Setting = "ALF"
	SettingILF Setting = "ILF"
	SettingMC  Setting = "MC"
)

// IsSeniorLiving reports whether occupancy facts apply to the setting.
func (s Setting) IsSeniorLiving() bool {
	return s == SettingALF || s == SettingILF || s == SettingMC
}

// ParseSetting converts a string to a Setting. Returns false if unknown.
func ParseSetting(s string) (Setting, bool) {
	switch v := Setting(strings.ToUpper(strings.TrimSpace(s))); v {
	case SettingSNF, SettingALF, SettingILF, SettingMC:
		return v, true
	default:
		return "", false
	}
}

// Facility is a care facility being benchmarked.
type Facility struct {
	ID      string
	Name    string
	State   string
	Region  string
	Setting Setting
}
