// Package domain models thermal and wind risk for subscribed locations.
//
// # Risk Classification
//
// Risk levels follow the four-tier occupational ladder used by the Spanish
// INSST guidance (no appreciable risk / moderate / high / very high),
// applied to three hazard families:
//
//	Heat:  heat index (°C)    <31 none | <38 moderate | <46 high | ≥46 very high
//	Cold:  wind chill (°C)    >4 none  | >-5 moderate | >-10 high | else very high
//	Wind:  wind speed (km/h)  <50 none | <70 moderate | <90 high | ≥90 very high
//
// Every level carries a label in the four supported locales (ca, es, eu, gl);
// an unsupported or missing locale falls back to Catalan.
//
// # Heat Index
//
// The heat index is the Rothfusz regression (NWS SR 90-23) expressed with
// Celsius coefficients. The regression is only reliable for warm, humid air;
// below 18 °C the perceived temperature is taken to be the raw air
// temperature instead of the regression output. Values are rounded to one
// decimal place.
//
// # Wind Chill
//
// Wind chill uses the Environment Canada / NWS 2001 approximation
// (temperature in °C, wind in km/h). It is meaningful only with measurable
// wind at low temperature; outside that domain the raw temperature is used.
//
// # Notification Policy
//
// A subscription is notified for a hazard only when the classified level
// meets the subscriber's configured threshold, the subscriber's local time is
// outside the quiet-hours window [22:00, 07:00), and no notification for the
// same hazard family was already sent during the same local calendar day.
// Local time is derived from the UTC offset reported with each weather
// observation, never from the server clock's zone.
//
// # Subscription Lifecycle
//
// Records are keyed by push token. They are created by the enrollment flow,
// merge-updated (never overwritten) by the evaluation job after a successful
// dispatch, and deleted only by the garbage collector: when the token is
// empty, when a delivery probe reports the token permanently invalid, or when
// the record has seen no activity for the staleness window (90 days by
// default). Ambiguous probe failures never delete a record on their own.
package domain
