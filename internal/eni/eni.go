// internal/eni/eni.go

// Package eni resolves axis configurations from EtherCAT network
// descriptors. Two descriptor dialects are understood: topology files
// built around a <SlaveList> of <Slave> elements, and device
// description files built around <EtherCATInfo> blocks. Both may occur
// in one document; slave-list axes are resolved first.
//
// Descriptors in the field are rarely well-formed XML, so resolution
// is a tolerant substring scan, not an XML parse. Tag matching is
// case-insensitive, numeric fields accept decimal and several hex
// spellings, and a block that cannot be understood is skipped rather
// than failing the document.
package eni

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/fieldbus"
)

// Identity fallbacks for descriptors that omit vendor or product.
const (
	DefaultVendorID    = 0x000116C7
	DefaultProductCode = 0x003E0402
)

// ErrNoSlaves is returned when a descriptor yields no axis at all.
var ErrNoSlaves = errors.New("eni: descriptor contains no slaves")

// AxisConfig is the resolved bus identity and PDO layout of one axis.
type AxisConfig struct {
	Position    uint16
	VendorID    uint32
	ProductCode uint32
	Outputs     []fieldbus.PDO
	Inputs      []fieldbus.PDO
}

// Resolve scans a descriptor document and returns one AxisConfig per
// recognized axis block, slave-list axes first, device-info axes after.
func Resolve(doc []byte) ([]AxisConfig, error) {
	s := string(doc)
	var axes []AxisConfig
	axes = appendSlaveList(axes, s)
	axes = appendDeviceInfos(axes, s)
	if len(axes) == 0 {
		return nil, ErrNoSlaves
	}
	return axes, nil
}

// ResolveFile reads and resolves a descriptor from disk.
func ResolveFile(path string) ([]AxisConfig, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eni: read descriptor %s: %w", path, err)
	}
	axes, err := Resolve(doc)
	if err != nil {
		return nil, fmt.Errorf("eni: resolve %s: %w", path, err)
	}
	return axes, nil
}

// DefaultAxes returns n axes with fallback identity and the standard
// CSP mapping: one receive PDO 0x1600 and one transmit PDO 0x1A00.
// Used when no descriptor is configured.
func DefaultAxes(n int) []AxisConfig {
	axes := make([]AxisConfig, n)
	for i := range axes {
		axes[i] = AxisConfig{
			Position:    uint16(i),
			VendorID:    DefaultVendorID,
			ProductCode: DefaultProductCode,
			Outputs: []fieldbus.PDO{{
				Index: 0x1600,
				Entries: []fieldbus.PDOEntry{
					{Index: 0x6040, SubIndex: 0, BitLen: 16},
					{Index: 0x6060, SubIndex: 0, BitLen: 8},
					{Index: 0x607A, SubIndex: 0, BitLen: 32},
					{Index: 0x60B8, SubIndex: 0, BitLen: 16},
				},
			}},
			Inputs: []fieldbus.PDO{{
				Index: 0x1A00,
				Entries: []fieldbus.PDOEntry{
					{Index: 0x603F, SubIndex: 0, BitLen: 16},
					{Index: 0x6041, SubIndex: 0, BitLen: 16},
					{Index: 0x6064, SubIndex: 0, BitLen: 32},
					{Index: 0x6061, SubIndex: 0, BitLen: 8},
					{Index: 0x60B9, SubIndex: 0, BitLen: 16},
					{Index: 0x60BA, SubIndex: 0, BitLen: 32},
					{Index: 0x60F4, SubIndex: 0, BitLen: 32},
					{Index: 0x60FD, SubIndex: 0, BitLen: 32},
					{Index: 0x213F, SubIndex: 0, BitLen: 16},
				},
			}},
		}
	}
	return axes
}

// ------------------------------------------------------------
// DIALECT A: <SlaveList> OF <Slave> BLOCKS
// ------------------------------------------------------------

func appendSlaveList(axes []AxisConfig, doc string) []AxisConfig {
	li := indexFold(doc, "<SlaveList")
	if li < 0 {
		return axes
	}
	rest := doc[li:]
	le := indexFold(rest, "</SlaveList>")
	if le < 0 {
		return axes
	}
	list := rest[:le]
	for {
		at := findTag(list, "<Slave")
		if at < 0 {
			break
		}
		list = list[at:]
		block, next, ok := cutSlaveBlock(list)
		if !ok {
			log.Warn("eni: unterminated slave tag, rest of slave list skipped")
			break
		}
		cfg, err := parseSlaveBlock(block, len(axes))
		if err != nil {
			log.Warnf("eni: slave block skipped: %v", err)
			list = next
			continue
		}
		axes = append(axes, cfg)
		list = next
	}
	return axes
}

// cutSlaveBlock splits off one <Slave ...>...</Slave> block from s,
// which must start at the opening tag. A block without a closing tag
// degenerates to the open tag alone, so identity attributes still
// resolve while the body is treated as empty.
func cutSlaveBlock(s string) (block, next string, ok bool) {
	gt := strings.IndexByte(s, '>')
	if gt < 0 {
		return "", "", false
	}
	const closing = "</Slave>"
	if end := indexFold(s, closing); end >= 0 {
		return s[:end], s[end+len(closing):], true
	}
	return s[:gt+1], s[gt+1:], true
}

func parseSlaveBlock(block string, ordinal int) (AxisConfig, error) {
	gt := strings.IndexByte(block, '>')
	tag := block[:gt+1]
	body := block[gt+1:]

	cfg := AxisConfig{
		Position:    uint16(ordinal),
		VendorID:    DefaultVendorID,
		ProductCode: DefaultProductCode,
	}
	if v, ok := attrValue(tag, "Position"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return cfg, fmt.Errorf("position attribute %q: %w", v, err)
		}
		cfg.Position = uint16(n)
	}
	if v, ok := attrValue(tag, "VendorId"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return cfg, fmt.Errorf("vendor attribute %q: %w", v, err)
		}
		if n != 0 {
			cfg.VendorID = uint32(n)
		}
	}
	if v, ok := attrValue(tag, "ProductCode"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return cfg, fmt.Errorf("product attribute %q: %w", v, err)
		}
		if n != 0 {
			cfg.ProductCode = uint32(n)
		}
	}
	cfg.Outputs, cfg.Inputs = parsePDOBlocks(body)
	return cfg, nil
}

// ------------------------------------------------------------
// DIALECT B: <EtherCATInfo> DEVICE BLOCKS
// ------------------------------------------------------------

func appendDeviceInfos(axes []AxisConfig, doc string) []AxisConfig {
	s := doc
	for {
		at := findTag(s, "<EtherCATInfo")
		if at < 0 {
			break
		}
		rest := s[at:]
		const closing = "</EtherCATInfo>"
		end := indexFold(rest, closing)
		var block string
		if end < 0 {
			block, s = rest, ""
		} else {
			block, s = rest[:end], rest[end+len(closing):]
		}
		cfg, err := parseDeviceInfo(block, len(axes))
		if err != nil {
			log.Warnf("eni: device info block skipped: %v", err)
		} else {
			axes = append(axes, cfg)
		}
		if end < 0 {
			break
		}
	}
	return axes
}

func parseDeviceInfo(block string, ordinal int) (AxisConfig, error) {
	cfg := AxisConfig{
		Position:    uint16(ordinal),
		VendorID:    DefaultVendorID,
		ProductCode: DefaultProductCode,
	}
	if v, ok := childText(block, "Id"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return cfg, fmt.Errorf("vendor id %q: %w", v, err)
		}
		if n != 0 {
			cfg.VendorID = uint32(n)
		}
	}
	if v, ok := attrValue(block, "ProductCode"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return cfg, fmt.Errorf("product code %q: %w", v, err)
		}
		if n != 0 {
			cfg.ProductCode = uint32(n)
		}
	}
	cfg.Outputs, cfg.Inputs = parsePDOBlocks(block)
	return cfg, nil
}

// ------------------------------------------------------------
// PDO AND ENTRY BLOCKS, SHARED BY BOTH DIALECTS
// ------------------------------------------------------------

type pdoKind int

const (
	pdoRx pdoKind = iota
	pdoTx
	pdoGeneric
)

var pdoTags = [...]struct {
	kind  pdoKind
	open  string
	close string
}{
	{pdoRx, "<RxPdo", "</RxPdo>"},
	{pdoTx, "<TxPdo", "</TxPdo>"},
	{pdoGeneric, "<Pdo", "</Pdo>"},
}

// parsePDOBlocks collects every PDO block in document order. Generic
// <Pdo> blocks are classified by index: 0x1A00 and above is a transmit
// PDO, anything below is a receive PDO.
func parsePDOBlocks(body string) (outputs, inputs []fieldbus.PDO) {
	s := body
	for {
		kind, at := nextPDOTag(s)
		if at < 0 {
			break
		}
		s = s[at:]
		end := indexFold(s, pdoTags[kind].close)
		if end < 0 {
			break
		}
		pdo := parsePDO(s[:end])
		switch {
		case kind == pdoTx, kind == pdoGeneric && pdo.Index >= 0x1A00:
			inputs = append(inputs, pdo)
		default:
			outputs = append(outputs, pdo)
		}
		s = s[end+len(pdoTags[kind].close):]
	}
	return outputs, inputs
}

// nextPDOTag returns the earliest PDO open tag in s.
func nextPDOTag(s string) (pdoKind, int) {
	best, bestAt := pdoGeneric, -1
	for _, t := range pdoTags {
		if at := findTag(s, t.open); at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = t.kind, at
		}
	}
	return best, bestAt
}

func parsePDO(block string) fieldbus.PDO {
	var pdo fieldbus.PDO
	gt := strings.IndexByte(block, '>')
	if gt < 0 {
		gt = len(block) - 1
	}

	// The PDO's own <Index> element must come from the region before
	// the first entry, otherwise an entry index would be picked up.
	head := block
	firstEntry := findTag(block, "<Entry")
	if firstEntry >= 0 {
		head = block[:firstEntry]
	}
	pdo.Index = uint16(numberField(head, block[:gt+1], "Index"))

	s := block
	for {
		at := findTag(s, "<Entry")
		if at < 0 {
			break
		}
		s = s[at:]
		egt := strings.IndexByte(s, '>')
		if egt < 0 {
			break
		}
		var entry, rest string
		const closing = "</Entry>"
		if end := indexFold(s, closing); end >= 0 {
			entry, rest = s[:end], s[end+len(closing):]
		} else {
			entry, rest = s[:egt+1], s[egt+1:]
		}
		tag := entry[:min(egt+1, len(entry))]
		pdo.Entries = append(pdo.Entries, fieldbus.PDOEntry{
			Index:    uint16(numberField(entry, tag, "Index")),
			SubIndex: uint8(numberField(entry, tag, "SubIndex")),
			BitLen:   uint8(numberField(entry, tag, "BitLen")),
		})
		s = rest
	}
	return pdo
}

// numberField reads a numeric field, preferring a child element over a
// same-named attribute of the open tag. The attribute is also consulted
// when the element parses to zero, which some exporters emit as a
// placeholder. Unparseable values count as absent.
func numberField(block, tag, name string) uint64 {
	if v, ok := childText(block, name); ok {
		if n, err := ParseNumber(v); err == nil && n != 0 {
			return n
		}
	}
	if v, ok := attrValue(tag, name); ok {
		if n, err := ParseNumber(v); err == nil {
			return n
		}
	}
	return 0
}
