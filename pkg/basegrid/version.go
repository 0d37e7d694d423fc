// Package basegrid holds build metadata of the basegrid client.
package basegrid

// Version is the release of the client library and CLI.
const Version = "v0.1.0"
