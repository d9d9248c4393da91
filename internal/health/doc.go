// Package health models the status of a monitored page.
//
// # Page Status
//
//	StatusMaintenance - the maintenance marker is present
//	StatusOnline      - the marker is absent
//	StatusError       - the page could not be checked (transient)
//
// A monitor starts from Initial (maintenance), so the first observation of
// an online page counts as the page coming back.
//
// # Classification
//
//	status := health.Classify(pageText, "undergoing temporary system maintenance")
//
// The comparison is a case-insensitive substring match.
//
// # Durations
//
//	health.Since(wentDown, time.Now()) // "2h 15m"
package health
