// internal/config/model.go
//
// Typed configuration model for Weft.
//
// Context
// -------
// These structs define the tree that loader.go builds from three overlay
// layers:
//
//   • optional `conf/.env`                    – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `WEFT_`-prefixed environment overrides  – highest precedence.
//
// Any string of the form `vault:<path>#<key>` is resolved through the
// Vault client after unmarshalling, so the rest of the app only ever sees
// plain values.  Validation runs immediately afterwards; the binary never
// serves with partial or malformed configuration.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags.
//   • The `Paths` block is filled at runtime; YAML must not set it.
//   • Oxford commas, two spaces after periods.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.  Dev switches the engine into strict
// mode: duplicate fragment targets panic instead of logging, and template
// parse caching is disabled.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	Dev        bool   `koanf:"dev"`
}

//
// Database section
//

// Database points at the membership database.  The DSN may be a Vault
// reference so credentials stay out of flat files and git history.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Redis section
//

// Redis configures the session store.  An empty Addr selects the
// in-memory store, which is only suitable for dev and tests.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

//
// Session section
//

// Session tunes session durability.
type Session struct {
	TTLHours int `koanf:"ttl_hours" validate:"gte=0"`
}

//
// Geo section
//

// Geo optionally points at a GeoLite2-City database.  Empty disables
// geolocation without disabling request enrichment.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  The loader discovers Root (repo root or
// WEFT_ROOT override) so later code can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
	Session  Session  `koanf:"session"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
