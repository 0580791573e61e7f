package edl

import "fmt"

// Section is a region of the export. SectionIgnore is the drain state used
// after a section has been terminated by a blank run; it never owns content.
type Section int

const (
	SectionNone Section = iota
	SectionHeader
	SectionPluginsListing
	SectionOnlineFiles
	SectionOfflineFiles
	SectionOnlineClips
	SectionTrackListing
	SectionTrackEvent
	SectionMarkersListing
	SectionIgnore
)

var sectionNames = [...]string{
	SectionNone:           "none",
	SectionHeader:         "header",
	SectionPluginsListing: "plug-ins listing",
	SectionOnlineFiles:    "online files",
	SectionOfflineFiles:   "offline files",
	SectionOnlineClips:    "online clips",
	SectionTrackListing:   "track listing",
	SectionTrackEvent:     "track event",
	SectionMarkersListing: "markers listing",
	SectionIgnore:         "ignore",
}

func (s Section) String() string {
	if s >= 0 && int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// banners are matched by exact equality against the trimmed line.
var banners = map[string]Section{
	"P L U G - I N S  L I S T I N G":               SectionPluginsListing,
	"O N L I N E  F I L E S  I N  S E S S I O N":   SectionOnlineFiles,
	"O F F L I N E  F I L E S  I N  S E S S I O N": SectionOfflineFiles,
	"O N L I N E  C L I P S  I N  S E S S I O N":   SectionOnlineClips,
	"T R A C K  L I S T I N G":                     SectionTrackListing,
	"M A R K E R S  L I S T I N G":                 SectionMarkersListing,
}

// Banner returns the letter-spaced banner that opens s, if it has one.
func (s Section) Banner() (string, bool) {
	for b, sec := range banners {
		if sec == s {
			return b, true
		}
	}
	return "", false
}

// tableWidths lists the valid cell counts per table section.
var tableWidths = map[Section][]int{
	SectionPluginsListing: {6},
	SectionOnlineFiles:    {2},
	SectionOfflineFiles:   {2},
	SectionOnlineClips:    {2},
	SectionMarkersListing: {6},
	SectionTrackEvent:     {7, 8},
}

func validWidth(s Section, n int) bool {
	for _, w := range tableWidths[s] {
		if w == n {
			return true
		}
	}
	return false
}
