// Package auth provides the API key middleware guarding the coordinator's
// HTTP surface (REST API, report intake, WebSocket upgrade).
package auth
