// internal/export/modbus/client.go

// Package modbus implements the export endpoint client over
// Modbus TCP.
package modbus

import (
	"fmt"
	"sync"
	"time"

	gomodbus "github.com/goburrow/modbus"
)

// Config for one endpoint connection.
type Config struct {
	// Endpoint is the host:port of the Modbus TCP server.
	Endpoint string
	// Timeout bounds each request on the wire.
	Timeout time.Duration
}

// Client is a write-only Modbus TCP client. Safe for concurrent use.
// The unit ID travels per call because the handler holds it as
// connection state.
type Client struct {
	mu      sync.Mutex
	handler *gomodbus.TCPClientHandler
	client  gomodbus.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("modbus: endpoint must not be empty")
	}
	handler := gomodbus.NewTCPClientHandler(cfg.Endpoint)
	if cfg.Timeout > 0 {
		handler.Timeout = cfg.Timeout
	}
	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("modbus: connect %s: %w", cfg.Endpoint, err)
	}
	return &Client{
		handler: handler,
		client:  gomodbus.NewClient(handler),
	}, nil
}

// WriteRegisters writes regs as holding registers starting at addr.
func (c *Client) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SlaveId = unitID
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	if err != nil {
		return fmt.Errorf("modbus: write %d registers at %d (unit %d): %w",
			len(regs), addr, unitID, err)
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// packRegisters renders registers big-endian, as the protocol wants
// them on the wire.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
