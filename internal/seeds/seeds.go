// Package seeds loads the peer address list that original_source's main.go
// read at startup to seed a producer/consumer test harness around the
// page. Here `pagestore serve` loads it at startup and logs the peer
// count; nothing else consumes the list. Format: one host:port per line,
// blank lines and "#" comments ignored.
package seeds

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
)

// Load reads a newline-delimited host:port list from path.
func Load(path string) ([]*net.TCPAddr, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seeds: open %s: %w", path, err)
	}
	defer f.Close()

	var addrs []*net.TCPAddr
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		addr, err := net.ResolveTCPAddr("tcp", line)
		if err != nil {
			return nil, fmt.Errorf("seeds: %s:%d: invalid address %q: %w", path, lineNum, line, err)
		}
		addrs = append(addrs, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("seeds: scan %s: %w", path, err)
	}

	return addrs, nil
}
