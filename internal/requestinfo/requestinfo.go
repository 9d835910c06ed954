// internal/requestinfo/requestinfo.go
//
// Per-request metadata: parsed user-agent, best-effort geolocation, and
// timestamp.  The structs are inert — no DB handles, no large buffers — so
// they are safe to log, JSON-encode, or hand to templates.
//
// Dependencies
//   • github.com/avct/uasurfer          (UA parsing)
//   • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent attributes surfaced to templates.
type UA struct {
	Raw       string // Entire User-Agent header
	Browser   string // "Chrome", "Firefox", "Safari", ...
	Version   string // "124.0.6367"
	OS        string // "macOS", "Windows", "Android", ...
	OSVersion string // "14.5"
	Device    string // "Desktop", "Phone", "Tablet", ...
	IsBot     bool
}

// Geo holds IP-based location hints.  Fields stay empty when no GeoLite2
// database is configured or the lookup misses.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is attached to the request context by Enrich and copied onto
// the view context by the dispatcher.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

// geoReader is a process-wide MaxMind handle; concurrent reads are safe.
// nil means geolocation is disabled.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database.  Call from main before serving;
// skipping the call leaves Geo fields empty rather than failing requests.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

type ctxKey struct{}

// FromContext returns the info stored by Enrich, or nil when the middleware
// has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
// internal helpers
//

// parseUA converts a raw header into the UA struct via uasurfer.
func parseUA(raw string) UA {
	u := uasurfer.Parse(raw)

	return UA{
		Raw:       raw,
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   versionString(u.Browser.Version),
		OS:        osName(u.OS.Name),
		OSVersion: versionString(u.OS.Version),
		Device:    deviceString(u.DeviceType),
		IsBot:     u.IsBot(),
	}
}

// osName strips uasurfer's enum prefix and normalises macOS.
func osName(n uasurfer.OSName) string {
	s := strings.TrimPrefix(n.String(), "OS")
	if s == "MacOSX" {
		return "macOS"
	}
	return s
}

// versionString renders "major.minor.patch" with trailing zeros trimmed,
// e.g., 17.0.0 → "17", 17.3.0 → "17.3".
func versionString(v uasurfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	}
	if v.Minor != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	}
	return strconv.Itoa(v.Major)
}

// deviceString maps uasurfer.DeviceType to a template-friendly label.
func deviceString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceTV:
		return "TV"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	default:
		return "Other"
	}
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	if geoReader == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
