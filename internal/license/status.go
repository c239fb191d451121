package license

import "fmt"

// Status mirrors SoftwareLicensingProduct.LicenseStatus.
type Status uint32

const (
	Unlicensed Status = iota
	Licensed
	OOBGrace
	OOTGrace
	NonGenuineGrace
	Notification
	ExtendedGrace
)

var statusNames = []string{
	Unlicensed:      "Unlicensed",
	Licensed:        "Licensed",
	OOBGrace:        "Out-of-box grace period",
	OOTGrace:        "Out-of-tolerance grace period",
	NonGenuineGrace: "Non-genuine grace period",
	Notification:    "Notification",
	ExtendedGrace:   "Extended grace period",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Unknown(%d)", uint32(s))
}

// Activated reports whether the product is permanently licensed.
func (s Status) Activated() bool {
	return s == Licensed
}

// Known reports whether the status code is one of the documented values.
func (s Status) Known() bool {
	return int(s) < len(statusNames)
}
