package cache

import "time"

// Per-data-class TTL tiers. Callers pick the tier matching their key class;
// the cache itself has no central default it forces on anyone.
const (
	// Geocoding results: coordinates for a place name do not move.
	TTLGeocoding = 7 * 24 * time.Hour

	// Weather forecasts refresh on the provider side every half hour or so.
	TTLWeatherForecast = 30 * time.Minute

	// Financial quotes are volatile during market hours; crypto more so.
	TTLStockQuote  = 5 * time.Minute
	TTLCryptoQuote = 2 * time.Minute

	// Driving/transit directions shift with traffic.
	TTLDirections = 15 * time.Minute

	// Calendar listings need near-real-time accuracy; writes additionally
	// invalidate affected entries before the TTL elapses.
	TTLCalendarEvents = 10 * time.Minute
	TTLFreeSlots      = 5 * time.Minute

	TTLDefault = 5 * time.Minute

	// NoStore flags a data class that bypasses caching entirely.
	NoStore time.Duration = 0
)
