// Package internal holds small cross-cutting helpers shared by the authgate
// engine and its sub-packages: device classification for transport
// selection. Nothing here is part of the public API.
package internal
