// Package ws broadcasts run status over WebSocket so a dashboard or script
// can watch an estimation converge without polling the REST API.
package ws
