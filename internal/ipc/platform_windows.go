//go:build windows
// +build windows

package ipc

import (
	"fmt"
	"net"
	"time"
)

// DefaultTCPAddr is the loopback address used in place of a Unix
// socket on Windows.
const DefaultTCPAddr = "127.0.0.1:7420"

// CreatePlatformListener creates a TCP listener on localhost
// (Windows). Unix domain sockets are unreliable there, and loopback
// TCP still gives sub-millisecond latency.
func CreatePlatformListener(socketPath string) (net.Listener, error) {
	// socketPath is ignored on Windows
	listener, err := net.Listen("tcp", DefaultTCPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", DefaultTCPAddr, err)
	}

	return listener, nil
}

// ConnectPlatform connects to the IPC server via loopback TCP
// (Windows).
func ConnectPlatform(socketPath string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", DefaultTCPAddr, time.Second)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// GetPlatformAddress returns the address string for logging
func GetPlatformAddress(socketPath string) string {
	return DefaultTCPAddr + " (TCP loopback, Windows mode)"
}
