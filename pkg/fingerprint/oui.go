package fingerprint

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// UnknownVendor is returned whenever the OUI prefix cannot be resolved.
const UnknownVendor = "Unknown"

// defaultVendors covers the OUI prefixes most commonly seen on home and
// office segments. A fuller table can be loaded from a CSV file.
var defaultVendors = map[string]string{
	"00000C": "Cisco Systems",
	"001A11": "Google",
	"001B63": "Apple",
	"0050F2": "Microsoft",
	"080027": "PCS Systemtechnik (VirtualBox)",
	"00155D": "Microsoft Hyper-V",
	"000C29": "VMware",
	"001C42": "Parallels",
	"3C5AB4": "Google",
	"B827EB": "Raspberry Pi Foundation",
	"DCA632": "Raspberry Pi Trading",
	"E45F01": "Raspberry Pi Trading",
	"F0B429": "Xiaomi",
	"FCFBFB": "Cisco Systems",
	"001122": "CIMSYS",
	"D85D4C": "TP-Link",
	"50C7BF": "TP-Link",
	"F4F26D": "TP-Link",
	"C05627": "Belkin",
	"E8DE27": "TP-Link",
	"A020A6": "Espressif",
	"240AC4": "Espressif",
	"3C71BF": "Espressif",
	"18FE34": "Espressif",
	"B4E62D": "Espressif",
	"001E06": "Wibrain",
	"8C8590": "Apple",
	"F02475": "Apple",
	"A45E60": "Apple",
	"28CFE9": "Apple",
	"D0817A": "Apple",
	"ACBC32": "Apple",
	"5CF938": "Apple",
	"00E04C": "Realtek",
	"525400": "QEMU/KVM",
	"0003FF": "Microsoft",
	"001DD8": "Microsoft",
}

// VendorDB maps hardware-address OUI prefixes to vendor names.
type VendorDB struct {
	vendors map[string]string
	mutex   sync.RWMutex
	logger  *logrus.Logger
}

// NewVendorDB creates a vendor database seeded with the built-in table.
func NewVendorDB(logger *logrus.Logger) *VendorDB {
	if logger == nil {
		logger = logrus.New()
	}

	vendors := make(map[string]string, len(defaultVendors))
	for prefix, vendor := range defaultVendors {
		vendors[prefix] = vendor
	}

	return &VendorDB{
		vendors: vendors,
		logger:  logger,
	}
}

// LoadFile merges entries from a "PREFIX,Vendor Name" CSV file into the
// database. Lines that do not parse are skipped.
func (db *VendorDB) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	db.mutex.Lock()
	defer db.mutex.Unlock()

	loaded := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ",", 2)
		if len(parts) != 2 {
			continue
		}

		prefix := strings.ToUpper(strings.TrimSpace(parts[0]))
		prefix = strings.ReplaceAll(prefix, ":", "")
		prefix = strings.ReplaceAll(prefix, "-", "")
		vendor := strings.TrimSpace(parts[1])

		if len(prefix) >= 6 && vendor != "" {
			db.vendors[prefix[:6]] = vendor
			loaded++
		}
	}

	db.logger.Infof("Loaded %d MAC vendor entries from %s", loaded, path)
	return scanner.Err()
}

// LookupVendor resolves a hardware address to its vendor name. Malformed or
// empty input yields UnknownVendor, never an error.
func (db *VendorDB) LookupVendor(mac string) string {
	normalized := NormalizeMAC(mac)
	if normalized == "" {
		return UnknownVendor
	}

	prefix := strings.ReplaceAll(normalized, ":", "")[:6]

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if vendor, ok := db.vendors[prefix]; ok {
		return vendor
	}
	return UnknownVendor
}

// Count returns the number of entries in the vendor database
func (db *VendorDB) Count() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.vendors)
}
